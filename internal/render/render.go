// Package render: граница с внешним слоем отрисовки страниц.
//
// Экстракторы видят только Page и Listing: список карточек по селектору и
// чтение поля карточки с явным признаком отсутствия. Браузер (rod), ожидания
// и сеть живут здесь.
package render

import (
	"context"
	"errors"
)

// ErrNotReady: страница не дошла до состояния, пригодного для извлечения, за отведённое время.
var ErrNotReady = errors.New("page did not reach ready state")

// FieldRule описывает чтение поля: селекторы пробуются по очереди,
// Attr пустой: берётся текст элемента. Селектор "" или ":scope": сама карточка.
type FieldRule struct {
	Selectors []string `yaml:"selectors"`
	Attr      string   `yaml:"attr,omitempty"`
}

// Listing: одна карточка события на отрисованной странице.
type Listing interface {
	// Field возвращает значение и false, если поле отсутствует или пустое.
	Field(rule FieldRule) (string, bool)
}

// Page: полностью отрисованная страница.
type Page interface {
	URL() string
	Listings(selector string) []Listing
}

// Target: что и как отрисовать.
type Target struct {
	URL             string
	ReadySelector   string
	ListingSelector string
	// Scroll включает прокрутку для подгрузки ленивых карточек.
	Scroll bool
}

type Renderer interface {
	Render(ctx context.Context, target Target) (Page, error)
	Close() error
}
