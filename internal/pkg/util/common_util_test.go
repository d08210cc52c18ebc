package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUniqueStrings(t *testing.T) {
	req := require.New(t)

	got := UniqueStrings([]string{"b", "a", ""}, []string{"a", "c", "b"})

	req.Equal([]string{"b", "a", "c"}, got)
	req.Empty(UniqueStrings())
}

func TestTruncateRunes(t *testing.T) {
	req := require.New(t)

	req.Equal("hello", TruncateRunes("hello", 10))
	req.Equal("hel", TruncateRunes("hello", 3))
	req.Equal("你好", TruncateRunes("你好世界", 2))
}

func TestValidateDTO(t *testing.T) {
	type payload struct {
		Name string `validate:"required,max=3"`
	}
	req := require.New(t)

	req.NoError(ValidateDTO(&payload{Name: "abc"}))
	req.Error(ValidateDTO(&payload{}))
	req.ErrorContains(ValidateDTO(&payload{Name: "abcd"}), "max")
}

func TestValidateDTO_Uses_JSON_Field_Names(t *testing.T) {
	type payload struct {
		ConversationID string `json:"conversationId" validate:"required"`
	}

	err := ValidateDTO(&payload{})

	require.ErrorContains(t, err, "conversationId")
	require.ErrorContains(t, err, "required")
}

func TestValidateDTO_Conversation_ID(t *testing.T) {
	type payload struct {
		ConversationID string `json:"conversationId" validate:"required,conv_id"`
	}
	req := require.New(t)

	for _, ok := range []string{"c1", "alice-bob", "room_1.v2", "会话1"} {
		req.NoError(ValidateDTO(&payload{ConversationID: ok}), ok)
	}
	for _, bad := range []string{"a:messages", "a b", "a\x00b", "a\nb", "{idx}"} {
		req.ErrorContains(ValidateDTO(&payload{ConversationID: bad}), "conv_id", bad)
	}
}
