package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWTService interface {
	GenerateToken(email string) (*string, error)
	GenerateRefreshToken(email string) (*string, error)
	ValidateToken(token string) (*string, error)
}

type jwtService struct {
	secretKey            string
	accessTokenDuration  time.Duration
	refreshTokenDuration time.Duration
}

func NewJWTService(secretKey string, accessTokenDuration time.Duration, refreshTokenDuration time.Duration) JWTService {
	return &jwtService{
		secretKey:            secretKey,
		accessTokenDuration:  accessTokenDuration,
		refreshTokenDuration: refreshTokenDuration,
	}
}

func (s *jwtService) GenerateToken(email string) (*string, error) {
	return s.signed(email, s.accessTokenDuration)
}

func (s *jwtService) GenerateRefreshToken(email string) (*string, error) {
	return s.signed(email, s.refreshTokenDuration)
}

func (s *jwtService) signed(email string, duration time.Duration) (*string, error) {
	claims := jwt.MapClaims{
		"email": email,
		"iat":   time.Now().Unix(),
		"iss":   "docquery-ai",
		"exp":   time.Now().Add(duration).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.secretKey))
	if err != nil {
		return nil, err
	}
	return &tokenString, nil
}

func (s *jwtService) ValidateToken(tokenString string) (*string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		email, ok := claims["email"].(string)
		if !ok {
			return nil, errors.New("token has no subject")
		}
		expClaim, ok := claims["exp"].(float64)
		if !ok {
			return nil, errors.New("token has no expiry")
		}
		if int64(expClaim) < time.Now().Unix() {
			return nil, errors.New("token has expired")
		}
		return &email, nil
	}

	return nil, err
}
