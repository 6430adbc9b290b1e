package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string {
	return &s
}

func TestRule_Combinators(t *testing.T) {
	authed := Actor{Authenticated: true, UserUID: "u1"}
	anon := Actor{}

	tests := []struct {
		name  string
		rule  Rule
		actor Actor
		want  bool
	}{
		{"atom true", Atom(Authenticated), authed, true},
		{"atom false", Atom(Authenticated), anon, false},
		{"and both true", And(Atom(Authenticated), Atom(Authenticated)), authed, true},
		{"and one false", And(Atom(Authenticated), Atom(Moderator)), authed, false},
		{"or one true", Or(Atom(Moderator), Atom(Authenticated)), authed, true},
		{"or both false", Or(Atom(Moderator), Atom(Admin)), authed, false},
		{"not inverts", Not(Atom(Authenticated)), anon, true},
		{"double not", Not(Not(Atom(Authenticated))), authed, true},
		{
			"nested combination",
			And(Atom(Authenticated), Or(Atom(Moderator), Not(Atom(Admin)))),
			authed,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Allows(tt.actor))
		})
	}
}

func TestRule_OwnerAtom(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{
			"actor is owner",
			Actor{Authenticated: true, UserUID: "u1", OwnerUID: strPtr("u1")},
			true,
		},
		{
			"actor is not owner",
			Actor{Authenticated: true, UserUID: "u1", OwnerUID: strPtr("u2")},
			false,
		},
		{
			"entity has no owner",
			Actor{Authenticated: true, UserUID: "u1", OwnerUID: nil},
			false,
		},
		{
			"unauthenticated actor never owns",
			Actor{Authenticated: false, UserUID: "u1", OwnerUID: strPtr("u1")},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Atom(Owner).Allows(tt.actor))
		})
	}
}

func TestPolicies(t *testing.T) {
	anon := Actor{}
	regular := Actor{Authenticated: true, UserUID: "u1"}
	moderator := Actor{Authenticated: true, UserUID: "m1", Roles: []string{ModeratorsGroup}}
	staff := Actor{Authenticated: true, UserUID: "s1", IsStaff: true}
	superuser := Actor{Authenticated: true, UserUID: "root", IsSuperuser: true}

	withOwner := func(a Actor, owner string) Actor {
		a.OwnerUID = &owner
		return a
	}

	tests := []struct {
		name  string
		rule  Rule
		actor Actor
		want  bool
	}{
		// Создание: любой аутентифицированный, кроме модераторов.
		{"course create by regular", CourseCreate, regular, true},
		{"course create by moderator", CourseCreate, moderator, false},
		{"course create by staff", CourseCreate, staff, true},
		{"course create by anon", CourseCreate, anon, false},
		{"lesson create by moderator", LessonCreate, moderator, false},

		// Изменение курса: модератор, владелец или администратор.
		{"course modify by owner", CourseModify, withOwner(regular, "u1"), true},
		{"course modify by stranger", CourseModify, withOwner(regular, "other"), false},
		{"course modify by moderator", CourseModify, moderator, true},
		{"course modify by staff", CourseModify, staff, true},
		{"course modify by superuser", CourseModify, superuser, true},
		{"course modify by anon", CourseModify, anon, false},

		// Чтение курса: достаточно аутентификации.
		{"course read by regular", CourseRead, regular, true},
		{"course read by anon", CourseRead, anon, false},

		// Чтение и обновление урока.
		{"lesson read by moderator", LessonReadUpdate, moderator, true},
		{"lesson read by owner", LessonReadUpdate, withOwner(regular, "u1"), true},
		{"lesson read by stranger", LessonReadUpdate, withOwner(regular, "other"), false},

		// Удаление урока: модератору не разрешено.
		{"lesson delete by moderator", LessonDelete, moderator, false},
		{"lesson delete by owner", LessonDelete, withOwner(regular, "u1"), true},
		{"lesson delete by staff", LessonDelete, staff, true},
		{"lesson delete by stranger", LessonDelete, withOwner(regular, "other"), false},

		// Профиль: сам пользователь или staff.
		{"user modify self", UserModify, withOwner(regular, "u1"), true},
		{"user modify by stranger", UserModify, withOwner(regular, "other"), false},
		{"user modify by staff", UserModify, staff, true},
		{"user modify by moderator", UserModify, moderator, false},

		// Подписки и платежи: достаточно аутентификации.
		{"subscription toggle by regular", SubscriptionToggle, regular, true},
		{"subscription toggle by anon", SubscriptionToggle, anon, false},
		{"payment create by regular", PaymentCreate, regular, true},
		{"payment create by anon", PaymentCreate, anon, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Allows(tt.actor))
		})
	}
}

func TestSeesAll(t *testing.T) {
	assert.True(t, SeesAll(Actor{Authenticated: true, IsStaff: true}))
	assert.True(t, SeesAll(Actor{Authenticated: true, Roles: []string{ModeratorsGroup}}))
	assert.False(t, SeesAll(Actor{Authenticated: true, IsSuperuser: true}))
	assert.False(t, SeesAll(Actor{Authenticated: true}))
}
