package service

import (
	"strings"

	"github.com/google/uuid"
)

func newOpaqueID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func newSalt() string {
	return newOpaqueID()[:5]
}

func newActivationCode() string {
	return newOpaqueID()
}

func newVerifyCode() string {
	return newOpaqueID()[:4]
}
