// Package repository stores whole JSON snapshots under string keys, the way a
// browser keeps them in local storage. Each write replaces the value for its
// key atomically; there is no read-modify-write at this level.
package repository

import (
	"context"
	"errors"
)

var ErrSlotNotFound = errors.New("slot not found")

type SlotRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

func CartKey(userKey string) string     { return "cart_" + userKey }
func WishlistKey(userKey string) string { return "wishlist_" + userKey }
func OrdersKey(userKey string) string   { return "orders_" + userKey }
func SessionKey(userKey string) string  { return "session_" + userKey }
func AccountKey(username string) string { return "account_" + username }
