package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/vektah/gqlparser/v2/ast"
)

// ErrInvalidDate はDateスカラーとして扱えない値を受け取った場合のエラー。
var ErrInvalidDate = errors.New("invalid Date value")

// Date はエポックミリ秒の整数で送受信される日時スカラー。
type Date struct {
	time.Time
}

// NewDate はtime.TimeをDateに変換する。
func NewDate(t time.Time) *Date {
	return &Date{Time: t}
}

// Serialize は日時をエポックミリ秒に変換する。ゼロ値は有効な日時として扱わない。
func Serialize(t time.Time) (int64, error) {
	if t.IsZero() {
		return 0, fmt.Errorf("%w: zero time", ErrInvalidDate)
	}
	return t.UnixMilli(), nil
}

// ParseValue は変数として渡された値（エポックミリ秒）を日時に変換する。
// JSONの数値はfloat64で届くため、int64に収まる整数値の場合のみ受け付ける。
func ParseValue(v interface{}) (time.Time, error) {
	switch n := v.(type) {
	case int:
		return time.UnixMilli(int64(n)), nil
	case int32:
		return time.UnixMilli(int64(n)), nil
	case int64:
		return time.UnixMilli(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return time.Time{}, fmt.Errorf("%w: %v is not an integer", ErrInvalidDate, n)
		}
		// float64(math.MaxInt64)は2^63に丸められるため等号も範囲外
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return time.Time{}, fmt.Errorf("%w: %v is out of range", ErrInvalidDate, n)
		}
		return time.UnixMilli(int64(n)), nil
	case json.Number:
		ms, err := n.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v is not an integer", ErrInvalidDate, n)
		}
		return time.UnixMilli(ms), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidDate, v)
	}
}

// ParseLiteral はクエリ中に直接書かれたリテラルを日時に変換する。
// Intリテラル以外、またはint64に収まらない場合はfalseを返す。
func ParseLiteral(lit *ast.Value) (time.Time, bool) {
	if lit == nil || lit.Kind != ast.IntValue {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(lit.Raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// ImplementsGraphQLType はスキーマ上のスカラー名との対応を示す。
func (Date) ImplementsGraphQLType(name string) bool {
	return name == "Date"
}

// UnmarshalGraphQL は変数の値をDateに変換する。
// インラインリテラルは実行前にbindDateLiteralsで変数へ移されるため、ここには変数値のみが届く。
func (d *Date) UnmarshalGraphQL(input interface{}) error {
	t, err := ParseValue(input)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON はDateをエポックミリ秒の整数として出力する。
func (d Date) MarshalJSON() ([]byte, error) {
	ms, err := Serialize(d.Time)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ms)
}
