package models

import "fmt"

// Key - составной ключ торгового цикла (пользователь + символ)
//
// Используется как ключ map в реестре Supervisor'а вместо конкатенации
// строк "user_id:symbol" - исключает коллизии при форматировании
type Key struct {
	UserID string
	Symbol string
}

// NewKey создает ключ с нормализованным символом
func NewKey(userID, symbol string) Key {
	return Key{UserID: userID, Symbol: symbol}
}

// String возвращает строковое представление (только для логов)
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.UserID, k.Symbol)
}
