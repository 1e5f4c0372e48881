package exchange

// Фабрики клиентов для пула.
//
// Боевая коннективность к биржам поставляется при развертывании как
// внешняя библиотека, реализующая Gateway; ядру достаточно фабрики

// SimFactory возвращает фабрику эмуляторов (демо-режим)
//
// Каждый клиент получает собственный random-walk, поэтому котировки
// двух бирж расходятся и спред живет
func SimFactory() Factory {
	return func(userID, exchangeName string) (Gateway, error) {
		if !IsSupported(exchangeName) {
			return nil, ErrUnsupportedExchange
		}
		return NewSimGateway(exchangeName), nil
	}
}

// LiveFactory - точка подключения реальной коннективности
//
// Пока внешняя библиотека не подключена, клиентов нет: фетчер уходит
// на синтетические котировки, а торговля закрыта гейтом реального рынка
func LiveFactory() Factory {
	return func(userID, exchangeName string) (Gateway, error) {
		if !IsSupported(exchangeName) {
			return nil, ErrUnsupportedExchange
		}
		return nil, ErrNoCredentials
	}
}
