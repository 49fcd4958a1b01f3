package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/citysafe/citysafe-backend/internal/pkg/apperror"
)

// Константы валидации
const (
	MaxDescriptionLength  = 2000
	MaxLocationTextLength = 500
	MaxReporterNameLength = 100
	MaxWitnessesLength    = 2000

	MinPasswordLength = 8
	MaxPasswordLength = 128

	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

var (
	emailRegex = regexp.MustCompile(`^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{3,20}$`)

	// Пунктуация, которую допускаем в телефоне и вырезаем перед проверкой.
	phonePunct = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// ValidateEmail проверяет формат email. Возвращает типизированную
// ошибку валидации, чтобы обработчик отдал корректный 400.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return apperror.Validation("invalid email format")
	}
	return nil
}

// NormalizePhone вырезает допустимую пунктуацию из номера телефона.
func NormalizePhone(phone string) string {
	return phonePunct.Replace(strings.TrimSpace(phone))
}

// ValidatePhone проверяет номер телефона: опциональный ведущий «+»
// и от 3 до 20 цифр после вырезания пунктуации.
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(NormalizePhone(phone)) {
		return apperror.Validation("invalid phone number format")
	}
	return nil
}

// ValidateLength проверяет максимальную длину строки в рунах.
func ValidateLength(fieldName, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return apperror.Validation(fmt.Sprintf("%s too long (max %d characters)", fieldName, max))
	}
	return nil
}

// ValidateCoordinates проверяет диапазоны широты и долготы.
func ValidateCoordinates(lat, lng float64) error {
	if lat < MinLatitude || lat > MaxLatitude || lng < MinLongitude || lng > MaxLongitude {
		return apperror.Validation("invalid coordinates")
	}
	return nil
}

// ValidatePassword проверяет пароль при регистрации.
func ValidatePassword(password string) error {
	length := utf8.RuneCountInString(password)
	if length < MinPasswordLength {
		return apperror.Validation(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if length > MaxPasswordLength {
		return apperror.Validation(fmt.Sprintf("password must be at most %d characters", MaxPasswordLength))
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.Validation(fieldName + " is required")
	}
	return nil
}
