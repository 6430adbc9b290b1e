// Package permissions реализует проверку прав доступа в виде составных
// булевых правил над контекстом актора. Правило — это небольшое дерево
// из атомов (аутентифицирован, модератор, владелец, администратор),
// соединённых комбинаторами И/ИЛИ/НЕ. Вычисление ленивое, слева направо,
// без побочных эффектов.
package permissions

import "slices"

// ModeratorsGroup имя группы, членство в которой даёт права модератора.
const ModeratorsGroup = "moderators"

// Actor описывает аутентифицированный контекст запроса, против которого
// вычисляются правила. OwnerUID — владелец целевой сущности; nil означает,
// что у сущности нет владельца (атом Owner даёт false).
type Actor struct {
	Authenticated bool
	UserUID       string
	Roles         []string
	IsStaff       bool
	IsSuperuser   bool
	OwnerUID      *string
}

// IsModerator сообщает, входит ли актор в группу модераторов.
func (a Actor) IsModerator() bool {
	return slices.Contains(a.Roles, ModeratorsGroup)
}

// IsAdmin сообщает, является ли актор сотрудником или суперпользователем.
func (a Actor) IsAdmin() bool {
	return a.IsStaff || a.IsSuperuser
}

type nodeKind int

const (
	nodeAtom nodeKind = iota
	nodeAnd
	nodeOr
	nodeNot
)

// AtomKind перечисляет атомарные проверки.
type AtomKind int

const (
	// Authenticated актор — известная аутентифицированная личность.
	Authenticated AtomKind = iota
	// Moderator актор входит в группу модераторов.
	Moderator
	// Owner актор совпадает с владельцем целевой сущности.
	Owner
	// Admin актор имеет признак staff или superuser.
	Admin
)

// Rule представляет правило доступа: атом либо комбинацию правил.
type Rule struct {
	kind        nodeKind
	atom        AtomKind
	left, right *Rule
}

// Atom возвращает правило из одной атомарной проверки.
func Atom(kind AtomKind) Rule {
	return Rule{kind: nodeAtom, atom: kind}
}

// And возвращает правило, истинное когда истинны оба операнда.
func And(left, right Rule) Rule {
	return Rule{kind: nodeAnd, left: &left, right: &right}
}

// Or возвращает правило, истинное когда истинен хотя бы один операнд.
func Or(left, right Rule) Rule {
	return Rule{kind: nodeOr, left: &left, right: &right}
}

// Not возвращает отрицание правила.
func Not(inner Rule) Rule {
	return Rule{kind: nodeNot, left: &inner}
}

// Allows вычисляет правило для данного актора.
func (r Rule) Allows(actor Actor) bool {
	switch r.kind {
	case nodeAnd:
		return r.left.Allows(actor) && r.right.Allows(actor)
	case nodeOr:
		return r.left.Allows(actor) || r.right.Allows(actor)
	case nodeNot:
		return !r.left.Allows(actor)
	default:
		return r.evalAtom(actor)
	}
}

func (r Rule) evalAtom(actor Actor) bool {
	switch r.atom {
	case Authenticated:
		return actor.Authenticated
	case Moderator:
		return actor.IsModerator()
	case Owner:
		return actor.OwnerUID != nil && actor.Authenticated && actor.UserUID == *actor.OwnerUID
	case Admin:
		return actor.IsAdmin()
	default:
		return false
	}
}

// Таблица политик по действиям. Владелец курса/урока всегда назначается
// из аутентифицированного контекста, поэтому правило создания не содержит
// атома Owner.
var (
	// CourseCreate аутентифицирован и не модератор.
	CourseCreate = And(Atom(Authenticated), Not(Atom(Moderator)))
	// CourseModify обновление и удаление курса.
	CourseModify = And(Atom(Authenticated), Or(Atom(Moderator), Or(Atom(Owner), Atom(Admin))))
	// CourseRead чтение курса.
	CourseRead = Atom(Authenticated)

	// LessonCreate аутентифицирован и не модератор.
	LessonCreate = And(Atom(Authenticated), Not(Atom(Moderator)))
	// LessonReadUpdate чтение и обновление урока.
	LessonReadUpdate = And(Atom(Authenticated), Or(Atom(Moderator), Or(Atom(Owner), Atom(Admin))))
	// LessonDelete удаление урока: модератору не разрешено.
	LessonDelete = And(Atom(Authenticated), Or(Atom(Owner), Atom(Admin)))

	// UserModify чтение, обновление и удаление пользователя: сам пользователь или staff.
	UserModify = And(Atom(Authenticated), Or(Atom(Owner), Atom(Admin)))

	// SubscriptionToggle переключение подписки на курс.
	SubscriptionToggle = Atom(Authenticated)

	// PaymentCreate создание платежа.
	PaymentCreate = Atom(Authenticated)
)

// SeesAll сообщает, видит ли актор все курсы и уроки в списках.
// Обычный пользователь видит только свои.
func SeesAll(actor Actor) bool {
	return actor.IsStaff || actor.IsModerator()
}
