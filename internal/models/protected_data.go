package models

import "github.com/BradenHooton/eduif/pkg/vault"

// ProtectedDataKey identifies the single sealed payload in the store
const ProtectedDataKey = "student-data"

// EncryptedBlob is the sealed form of the protected payload
type EncryptedBlob = vault.Blob
