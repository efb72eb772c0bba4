package security

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// CredentialGate хранит единственную пару логин/пароль, заданную на старте.
// Пустая пара — авторизация выключена и любой запрос проходит.
type CredentialGate struct {
	username string
	password string
	enabled  bool
}

func NewCredentialGate(username, password string) *CredentialGate {
	return &CredentialGate{
		username: username,
		password: password,
		enabled:  username != "" && password != "",
	}
}

func (g *CredentialGate) Enabled() bool {
	return g.enabled
}

// Verify сравнивает обе половины за постоянное время, чтобы по задержке
// ответа нельзя было угадывать секрет побайтово. Частичное совпадение — отказ.
func (g *CredentialGate) Verify(username, password string) bool {
	if !g.enabled {
		return true
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1

	var passOK bool
	if isBcryptHash(g.password) {
		passOK = bcrypt.CompareHashAndPassword([]byte(g.password), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	}

	return userOK && passOK
}

// isBcryptHash пароль в конфиге может быть не открытым текстом, а bcrypt-хэшем.
func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// ParseAuthString разбирает значение флага вида "username:password".
func ParseAuthString(s string) (username, password string, err error) {
	i := strings.Index(s, ":")
	if i < 0 {
		return "", "", fmt.Errorf("invalid auth format %q, expected 'username:password'", s)
	}
	username = s[:i]
	password = s[i+1:]
	if username == "" || password == "" {
		return "", "", fmt.Errorf("username and password cannot be empty")
	}
	return username, password, nil
}

// RequireAuth оборачивает хэндлер в BasicAuth. При выключенном gate — прозрачен.
// Неудача — всегда 401 с challenge, никакого «тихого» режима только для чтения.
func RequireAuth(gate *CredentialGate, next http.Handler) http.Handler {
	if !gate.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || !gate.Verify(username, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="skyhook"`)
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
