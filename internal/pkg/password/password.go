package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmpty 空密码
var ErrEmpty = errors.New("password is empty")

// Hash 生成 bcrypt 哈希
func Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmpty
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify 校验明文与哈希，哈希为空时总是失败
func Verify(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
