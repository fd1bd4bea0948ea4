package auth

import (
	"fmt"
	"time"

	"arena-backend/config"
	"arena-backend/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	UserId      int      `json:"user_id"`
	Permissions []string `json:"permissions"`
	Exp         int64    `json:"exp"`
}

func (claims *Claims) FromJWTClaims(jwtClaims jwt.Claims) {
	permissions := []string{}
	if jwtClaims.(jwt.MapClaims)["permissions"] != nil {
		for _, perm := range jwtClaims.(jwt.MapClaims)["permissions"].([]interface{}) {
			permissions = append(permissions, perm.(string))
		}
	}
	claims.Permissions = permissions
	claims.UserId = int(jwtClaims.(jwt.MapClaims)["user_id"].(float64))
	claims.Exp = int64(jwtClaims.(jwt.MapClaims)["exp"].(float64))
}

func (claims *Claims) Valid() error {
	if time.Now().Unix() > claims.Exp {
		return jwt.ErrTokenExpired
	}
	return nil
}

func CreateToken(user *repository.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"user_id":     user.Id,
			"permissions": user.Permissions,
			"exp":         time.Now().Add(time.Hour * 24 * 21).Unix(),
		})

	tokenString, err := token.SignedString([]byte(config.Env().JWTSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func ParseToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.Env().JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}
	return token, nil
}

// CreateAttendanceToken signs a check-in credential for one participant on
// one event. The jti is what the attendance table stores; reissuing
// replaces it, which invalidates every earlier token for the pair. No
// expiry: the QR code stays scannable for the whole event.
func CreateAttendanceToken(eventId int, participantId int) (string, string, error) {
	tokenId := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"event_id":       eventId,
			"participant_id": participantId,
			"jti":            tokenId,
		})
	tokenString, err := token.SignedString([]byte(config.Env().JWTSecret))
	if err != nil {
		return "", "", err
	}
	return tokenString, tokenId, nil
}

// ParseAttendanceToken returns the event id, participant id and jti of a
// check-in credential.
func ParseAttendanceToken(tokenString string) (int, int, string, error) {
	token, err := ParseToken(tokenString)
	if err != nil {
		return 0, 0, "", err
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, 0, "", fmt.Errorf("unexpected claims type")
	}
	eventId, ok := mapClaims["event_id"].(float64)
	if !ok {
		return 0, 0, "", fmt.Errorf("missing event_id claim")
	}
	participantId, ok := mapClaims["participant_id"].(float64)
	if !ok {
		return 0, 0, "", fmt.Errorf("missing participant_id claim")
	}
	tokenId, ok := mapClaims["jti"].(string)
	if !ok {
		return 0, 0, "", fmt.Errorf("missing jti claim")
	}
	return int(eventId), int(participantId), tokenId, nil
}
