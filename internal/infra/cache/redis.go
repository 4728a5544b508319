package cache

import (
	radix "github.com/mediocregopher/radix/v3"
)

// NewPool はRedis接続プールを作る。
// グローバルには持たず、呼び出し側がDIで渡す。
func NewPool(addr string) (*radix.Pool, error) {
	return radix.NewPool("tcp", addr, 10)
}
