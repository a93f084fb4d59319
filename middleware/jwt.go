package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWT错误定义
var (
	ErrJWTTokenMissing   = errors.New("令牌缺失")
	ErrJWTTokenInvalid   = errors.New("令牌无效")
	ErrJWTTokenExpired   = errors.New("令牌已过期")
	ErrJWTTokenNotActive = errors.New("令牌尚未生效")
)

// ClaimsKey 已验证声明在上下文中的键
const ClaimsKey = "claims"

// JWTConfig JWT中间件的配置
type JWTConfig struct {
	// 用于验证的密钥
	SigningKey interface{}

	// 签名方法
	SigningMethod jwt.SigningMethod

	// 期望的签发者，为空时不检查
	Issuer string

	// 令牌查找方式，"header:Authorization" 或 "query:<参数名>"
	TokenLookup string

	// 认证方案
	AuthScheme string

	// 跳过验证的判断函数
	Skipper func(*gin.Context) bool
}

// DefaultJWTConfig 返回JWT中间件的默认配置
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		SigningMethod: jwt.SigningMethodHS256,
		TokenLookup:   "header:Authorization",
		AuthScheme:    "Bearer",
	}
}

// JWT 返回一个使用HS256密钥验证的JWT中间件
func JWT(key []byte) gin.HandlerFunc {
	config := DefaultJWTConfig()
	config.SigningKey = key
	return JWTWithConfig(config)
}

// JWTWithConfig 返回一个使用指定配置的JWT中间件
func JWTWithConfig(config JWTConfig) gin.HandlerFunc {
	if config.SigningKey == nil {
		panic("middleware: JWT 需要签名密钥")
	}
	if config.SigningMethod == nil {
		config.SigningMethod = jwt.SigningMethodHS256
	}
	if config.AuthScheme == "" {
		config.AuthScheme = "Bearer"
	}
	extract := tokenExtractor(config.TokenLookup, config.AuthScheme)

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{config.SigningMethod.Alg()})}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		if config.Skipper != nil && config.Skipper(c) {
			c.Next()
			return
		}

		tokenString, err := extract(c)
		if err != nil {
			unauthorized(c, err)
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return config.SigningKey, nil
		})
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			unauthorized(c, ErrJWTTokenExpired)
			return
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			unauthorized(c, ErrJWTTokenNotActive)
			return
		case err != nil || !token.Valid:
			unauthorized(c, ErrJWTTokenInvalid)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// Claims 返回已验证的令牌声明
func Claims(c *gin.Context) (*jwt.RegisteredClaims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.RegisteredClaims)
	return claims, ok
}

func unauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": err.Error(),
	})
}

// tokenExtractor 创建从请求头或查询参数中提取令牌的函数
func tokenExtractor(lookup, scheme string) func(*gin.Context) (string, error) {
	source, name, _ := strings.Cut(lookup, ":")
	if source == "query" && name != "" {
		return func(c *gin.Context) (string, error) {
			if token := c.Query(name); token != "" {
				return token, nil
			}
			return "", ErrJWTTokenMissing
		}
	}
	if source != "header" || name == "" {
		name = "Authorization"
	}

	return func(c *gin.Context) (string, error) {
		auth := c.GetHeader(name)
		l := len(scheme)
		if len(auth) > l+1 && strings.EqualFold(auth[:l], scheme) && auth[l] == ' ' {
			return strings.TrimSpace(auth[l+1:]), nil
		}
		return "", ErrJWTTokenMissing
	}
}

// CreateToken 创建一个新的JWT令牌
func CreateToken(claims jwt.Claims, key interface{}, method jwt.SigningMethod) (string, error) {
	return jwt.NewWithClaims(method, claims).SignedString(key)
}

// CreateTokenWithExp 创建一个带有过期时间的HS256令牌
func CreateTokenWithExp(issuer, subject string, expiry time.Duration, key []byte) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
	}
	return CreateToken(claims, key, jwt.SigningMethodHS256)
}
