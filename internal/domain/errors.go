package domain

import "errors"

var (
	ErrUserNotFound           = errors.New("kullanıcı bulunamadı")
	ErrRoleNotFound           = errors.New("rol bulunamadı")
	ErrDuplicateEmail         = errors.New("bu e-posta adresi zaten kullanılıyor")
	ErrMissingField           = errors.New("zorunlu alan eksik")
	ErrFieldTooLong           = errors.New("alan 100 karakteri aşıyor")
	ErrConcurrentModification = errors.New("eşzamanlı değişiklik tespit edildi")
)
