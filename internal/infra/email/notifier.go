package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

type SMTPNotifier struct {
	host   string
	port   int
	from   string
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, logger: logger}
}

func (n *SMTPNotifier) NotifyFlagged(_ context.Context, userEmail, videoID, videoTitle string) error {
	subject := fmt.Sprintf("Content review required [Video %s]", videoID)
	body := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"The sensitivity analysis of your video flagged it for review.\r\n\r\n"+
			"Video ID: %s\r\n"+
			"Title: %s\r\n\r\n"+
			"The video stays available to your tenant while a reviewer takes a look.\r\n\r\n"+
			"-- Content Sensitivity Service",
		videoID, videoTitle,
	)
	return n.send(userEmail, videoID, subject, body)
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, userEmail, videoID, videoTitle, errorMsg string) error {
	subject := fmt.Sprintf("Video analysis failed [Video %s]", videoID)
	body := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"The sensitivity analysis of your video failed.\r\n\r\n"+
			"Video ID: %s\r\n"+
			"Title: %s\r\n"+
			"Error: %s\r\n\r\n"+
			"You can re-trigger the analysis from the video page or contact support.\r\n\r\n"+
			"-- Content Sensitivity Service",
		videoID, videoTitle, errorMsg,
	)
	return n.send(userEmail, videoID, subject, body)
}

func (n *SMTPNotifier) send(to, videoID, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, to, subject, body,
	)

	err := smtp.SendMail(addr, nil, n.from, []string{to}, []byte(msg))
	if err != nil {
		n.logger.Error("failed to send notification email",
			zap.String("to", to),
			zap.String("video_id", videoID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("notification email sent",
		zap.String("to", to),
		zap.String("video_id", videoID),
	)
	return nil
}
