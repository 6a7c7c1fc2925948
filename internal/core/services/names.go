package services

import (
	"crypto/sha256"
	"encoding/hex"
)

// collectionPrefix tags every collection created by this application.
const collectionPrefix = "conv_"

// collectionHashLen is the number of hex characters kept from the hash.
const collectionHashLen = 16

// CollectionName derives the collection name for a conversation.
// The mapping is a pure one-way function: the same id always yields the
// same name, across calls and process restarts, so no separate
// id-to-name mapping needs to be stored.
func CollectionName(conversationID string) string {
	sum := sha256.Sum256([]byte(conversationID))
	return collectionPrefix + hex.EncodeToString(sum[:])[:collectionHashLen]
}
