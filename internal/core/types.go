// Package core owns the live, in-memory side of the chat: which sessions
// exist and which rooms they currently occupy. Nothing here touches the
// network or the database.
package core

// Frame is a marshaled event ready for the wire.
type Frame []byte

type SessionID string

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
