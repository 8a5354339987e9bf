package pkg

import (
	cryptoRand "crypto/rand"
	"math/big"
	"strings"
)

const (
	// CodeAlphabet 去掉了 0/O/1/I/L 等易混字符，只有大写
	CodeAlphabet      = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	DefaultCodeLength = 6
)

// GenerateCode 生成加入社区用的短码；唯一性由调用方保证
func GenerateCode(n int) (string, error) {
	if n <= 0 {
		n = DefaultCodeLength
	}
	max := big.NewInt(int64(len(CodeAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		x, err := cryptoRand.Int(cryptoRand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(CodeAlphabet[x.Int64()])
	}
	return b.String(), nil
}

// NormalizeCode 用户输入的短码统一去空格转大写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
