package customerservice

import "errors"

var (
	// ErrCustomerNotFound возвращается, когда клиент с таким телефоном не зарегистрирован у тенанта
	ErrCustomerNotFound = errors.New("customerservice: customer not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("customerservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("customerservice client: invalid response")
)
