// Package sender реализует рассылку писем об обновлении курса.
//
// Сервис выполняется как обработчик сообщений очереди. В сообщении приходит
// только идентификатор курса: состояние курса и список подписчиков
// перечитываются в момент выполнения, поэтому письмо отражает состояние
// на момент рассылки, а не на момент постановки задачи.
package sender

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/lib/smtp"
	"github.com/magabrotheeeer/course-platform/internal/models"
)

// CourseRepository определяет чтение курса и его подписчиков.
type CourseRepository interface {
	GetCourse(ctx context.Context, id int) (*models.Course, error)
	ListSubscribersByCourse(ctx context.Context, courseID int) ([]*models.Subscriber, error)
}

// Transport описывает подключение к SMTP серверу.
type Transport interface {
	Connect() (smtp.Client, error)
	GetSMTPUser() string
}

// SenderService отправляет письма подписчикам обновлённого курса.
type SenderService struct {
	repo      CourseRepository
	transport Transport
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(repo CourseRepository, transport Transport, log *slog.Logger) *SenderService {
	return &SenderService{
		repo:      repo,
		transport: transport,
		log:       log,
	}
}

var courseUpdateTemplate = template.Must(template.New("course_update").Parse(
	`<html>
<body>
<p>Здравствуйте, {{.UserName}}!</p>
<p>Курс <b>{{.CourseTitle}}</b> был обновлён.</p>
{{if .CourseDescription}}<p>{{.CourseDescription}}</p>{{end}}
<p>Зайдите на платформу, чтобы посмотреть изменения.</p>
</body>
</html>`))

type emailContext struct {
	UserName          string
	CourseTitle       string
	CourseDescription string
}

// HandleCourseUpdated обработчик сообщения очереди об обновлении курса.
// Любой исход, включая нечитаемое тело сообщения, сводится к строке результата
// и записывается в лог: обработчик всегда возвращает nil, чтобы очередь
// не передоставляла задачи, которым повтор не поможет.
func (s *SenderService) HandleCourseUpdated(ctx context.Context, body []byte) error {
	var event models.CourseUpdatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("dropped malformed course update message", sl.Err(err))
		return nil
	}

	result := s.NotifySubscribers(ctx, event.CourseID)
	s.log.Info("course update notification finished", slog.String("result", result))
	return nil
}

// NotifySubscribers отправляет по одному письму каждому подписчику курса
// и возвращает строку с результатом. Ошибка отправки прерывает рассылку:
// уже отправленные письма не отзываются и повтор не планируется.
func (s *SenderService) NotifySubscribers(ctx context.Context, courseID int) string {
	course, err := s.repo.GetCourse(ctx, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Sprintf("course %d does not exist", courseID)
	}
	if err != nil {
		return fmt.Sprintf("failed to load course %d: %v", courseID, err)
	}

	subscribers, err := s.repo.ListSubscribersByCourse(ctx, courseID)
	if err != nil {
		return fmt.Sprintf("failed to list subscribers for course %q: %v", course.Title, err)
	}
	if len(subscribers) == 0 {
		return fmt.Sprintf("no subscribers for course %q", course.Title)
	}

	subject := "Обновление курса: " + course.Title

	sent := 0
	for _, subscriber := range subscribers {
		htmlBody, err := renderCourseUpdate(course, subscriber)
		if err != nil {
			return fmt.Sprintf("failed to render email for course %q: %v", course.Title, err)
		}
		plainBody := stripTags(htmlBody)
		if err := s.sendEmail(subscriber.Email, subject, htmlBody, plainBody); err != nil {
			return fmt.Sprintf("sent %d of %d notifications for course %q, stopped on error: %v",
				sent, len(subscribers), course.Title, err)
		}
		sent++
	}
	return fmt.Sprintf("sent %d notifications for course %q", sent, course.Title)
}

func renderCourseUpdate(course *models.Course, subscriber *models.Subscriber) (string, error) {
	var sb strings.Builder
	err := courseUpdateTemplate.Execute(&sb, emailContext{
		UserName:          subscriber.DisplayName(),
		CourseTitle:       course.Title,
		CourseDescription: course.Description,
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// stripTags убирает HTML-разметку для текстовой версии письма.
func stripTags(html string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(strings.Join(strings.Fields(sb.String()), " "))
}

func (s *SenderService) sendEmail(to, subject, htmlBody, plainBody string) error {
	const boundary = "course-platform-alt"
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=\"" + boundary + "\"",
		"",
		"--" + boundary,
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		plainBody,
		"",
		"--" + boundary,
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		htmlBody,
		"",
		"--" + boundary + "--",
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), sl.Err(err))
		return err
	}
	if err := client.Rcpt(to); err != nil {
		s.log.Error("failed to set RCPT TO", "recipient", to, sl.Err(err))
		return err
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.String("to", to))
	return nil
}
