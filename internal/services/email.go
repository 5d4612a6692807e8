package services

import (
	"collegeportal/internal/config"
	"collegeportal/internal/logger"
	"collegeportal/internal/utils"
	"collegeportal/internal/utils/helpers"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrEmailQueueFull — очередь писем переполнена, письмо не принято.
var ErrEmailQueueFull = errors.New("email queue is full")

type EmailJob struct {
	To      []string
	Subject string
	Body    string
	IsHTML  bool
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService отправляет письма через SMTP из собственной очереди.
// Если SMTP не настроен, письма только логируются.
type EmailService struct {
	auth     smtp.Auth
	from     string
	host     string
	port     string
	enabled  bool
	devLinks bool

	queue    chan EmailJob
	sendMail sendMailFunc
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewEmailService(cfg *config.Config) *EmailService {
	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	return &EmailService{
		auth:     auth,
		from:     cfg.MailFrom,
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		enabled:  cfg.SMTPHost != "" && cfg.SMTPUser != "",
		devLinks: cfg.IsDev(),
		queue:    make(chan EmailJob, 100),
		sendMail: smtp.SendMail,
	}
}

func (s *EmailService) Send(to []string, subject, body string) error {
	return s.deliver(to, subject, "text/plain", body)
}

func (s *EmailService) SendHTML(to []string, subject, body string) error {
	return s.deliver(to, subject, "text/html", body)
}

func (s *EmailService) deliver(to []string, subject, contentType, body string) error {
	if !s.enabled {
		logger.Log.Info("SMTP не настроен, письмо не отправлено",
			zap.String("subject", subject), zap.Int("recipients", len(to)))
		return nil
	}
	msg := []byte("From: " + s.from + "\r\n" +
		"To: " + strings.Join(to, ", ") + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: " + contentType + "; charset=\"utf-8\"\r\n\r\n" +
		body)

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.sendMail(addr, s.auth, s.from, to, msg)
}

// Start запускает воркеров очереди; Stop останавливает их и ждёт завершения.
func (s *EmailService) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	ctx, s.cancel = context.WithCancel(ctx)
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
}

func (s *EmailService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	if n := len(s.queue); n > 0 {
		logger.Log.Warn("Остановка: в очереди остались неотправленные письма", zap.Int("count", n))
	}
}

func (s *EmailService) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			var err error
			if job.IsHTML {
				err = s.SendHTML(job.To, job.Subject, job.Body)
			} else {
				err = s.Send(job.To, job.Subject, job.Body)
			}
			if err != nil {
				logger.Log.Error("Не удалось отправить письмо", zap.String("subject", job.Subject), zap.Error(err))
			}
		}
	}
}

// Enqueue никогда не блокирует запрос: при полной очереди письмо отбрасывается.
func (s *EmailService) Enqueue(job EmailJob) error {
	select {
	case s.queue <- job:
		return nil
	default:
		logger.Log.Warn("Очередь писем переполнена", zap.String("subject", job.Subject))
		return ErrEmailQueueFull
	}
}

func (s *EmailService) SendPasswordReset(ctx context.Context, to, resetLink string, ttl time.Duration) error {
	if s.devLinks && !s.enabled {
		// только в dev без SMTP: иначе ссылку не получить
		logger.WithCtx(ctx).Debug("Ссылка сброса пароля (dev)", zap.String("email_masked", utils.MaskEmail(to)), zap.String("link", resetLink))
	}
	return s.Enqueue(EmailJob{
		To:      []string{to},
		Subject: "Восстановление пароля",
		Body:    helpers.BuildPasswordResetHTML(resetLink, ttl),
		IsHTML:  true,
	})
}

func (s *EmailService) SendPasswordChanged(_ context.Context, to string, at time.Time) error {
	return s.Enqueue(EmailJob{
		To:      []string{to},
		Subject: "Пароль изменён",
		Body:    helpers.BuildPasswordChangedHTML(at),
		IsHTML:  true,
	})
}
