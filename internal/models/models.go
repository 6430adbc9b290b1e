// Package models содержит доменные структуры платформы онлайн-курсов,
// а также вспомогательные типы для работы с данными из внешних источников (например, JSON-запросы).
package models

import "time"

// User представляет пользователя платформы. Идентификация по email.
// Деактивация пользователя — мягкое состояние (IsActive = false), записи не удаляются.
type User struct {
	UID          string     // Уникальный идентификатор
	Email        string     // Email, уникален
	PasswordHash string     // Bcrypt-хэш пароля
	FirstName    string     // Имя для отображения, может быть пустым
	Phone        string     // Номер телефона
	City         string     // Город
	AvatarURL    string     // Ссылка на аватар
	IsStaff      bool       // Признак сотрудника
	IsSuperuser  bool       // Признак суперпользователя
	IsActive     bool       // Активен ли пользователь
	LastLogin    *time.Time // Время последней аутентификации, nil — не входил
	Roles        []string   // Имена групп, например "moderators"
}

// Course представляет курс. Владелец — слабая ссылка:
// при удалении пользователя поле обнуляется, курс остаётся.
type Course struct {
	ID          int
	Title       string
	Description string
	PreviewURL  string
	OwnerUID    *string
}

// Lesson представляет урок внутри курса. Удаление курса удаляет его уроки.
type Lesson struct {
	ID          int
	Title       string
	Description string
	PreviewURL  string
	VideoLink   string // Допускаются только ссылки на youtube.com
	CourseID    int
	OwnerUID    *string
}

// Subscription представляет подписку пользователя на курс.
// На пару (пользователь, курс) существует не более одной записи.
type Subscription struct {
	ID           int
	UserUID      string
	CourseID     int
	SubscribedAt time.Time
}

// Payment представляет платёж за курс или урок (ровно одно из двух).
// Поля Stripe* хранят идентификаторы сущностей платёжного шлюза.
type Payment struct {
	ID              int
	UserUID         string
	PaymentDate     time.Time
	CourseID        *int
	LessonID        *int
	Amount          float64
	PaymentMethod   string // cash | transfer
	StripeProductID string
	StripePriceID   string
	StripeSessionID string
	StripePayURL    string
	StripeStatus    string
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	City      string `json:"city,omitempty"`
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DummyUserUpdate используется для приёма данных обновления профиля.
type DummyUserUpdate struct {
	FirstName string `json:"first_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	City      string `json:"city,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// DummyCourse используется для приёма данных курса из JSON-запроса.
// Владелец здесь отсутствует намеренно: он всегда берётся из аутентифицированного
// контекста, а не из тела запроса.
type DummyCourse struct {
	Title       string `json:"title" validate:"required,max=150"`
	Description string `json:"description,omitempty"`
	PreviewURL  string `json:"preview_url,omitempty"`
}

// DummyLesson используется для приёма данных урока из JSON-запроса.
type DummyLesson struct {
	Title       string `json:"title" validate:"required,max=150"`
	Description string `json:"description,omitempty"`
	PreviewURL  string `json:"preview_url,omitempty"`
	VideoLink   string `json:"video_link,omitempty"`
	CourseID    int    `json:"course_id" validate:"required,gt=0"`
}

// DummyPayment используется для приёма данных на создание платежа.
// Должно быть заполнено ровно одно из полей CourseID/LessonID.
type DummyPayment struct {
	CourseID      int     `json:"course_id,omitempty"`
	LessonID      int     `json:"lesson_id,omitempty"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=cash transfer"`
}

// PaymentFilter описывает фильтры списка платежей.
type PaymentFilter struct {
	CourseID      *int
	LessonID      *int
	PaymentMethod *string
}

// CourseUpdatedEvent сообщение очереди о том, что курс обновлён.
// Передаётся только идентификатор: рассыльщик перечитывает актуальное
// состояние курса в момент выполнения задачи.
type CourseUpdatedEvent struct {
	CourseID int `json:"course_id"`
}

// Subscriber данные подписчика курса, необходимые для отправки уведомления.
type Subscriber struct {
	Email     string
	FirstName string
}

// DisplayName возвращает имя подписчика для письма, либо email, если имя не задано.
func (s Subscriber) DisplayName() string {
	if s.FirstName != "" {
		return s.FirstName
	}
	return s.Email
}
