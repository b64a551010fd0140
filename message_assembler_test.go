package dotprompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMessages_PlainText(t *testing.T) {
	t.Parallel()
	msgs, err := ToMessages("hello world", DataArgument[any]{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "hello world", msgs[0].Content[0].(TextPart).Text)
}

func TestToMessages_RoleSwitch(t *testing.T) {
	t.Parallel()
	rendered := "<<<dotprompt:role:system>>>be nice<<<dotprompt:role:user>>>hi there"
	msgs, err := ToMessages(rendered, DataArgument[any]{})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, "be nice", msgs[0].Content[0].(TextPart).Text)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, "hi there", msgs[1].Content[0].(TextPart).Text)
}

func TestToMessages_RoleMarkerWithoutContentMutatesInPlace(t *testing.T) {
	t.Parallel()
	// Two consecutive role markers with no content between them should not
	// produce an empty message: the second marker just overwrites the role
	// of the still-empty current message.
	rendered := "<<<dotprompt:role:system>>><<<dotprompt:role:user>>>hi"
	msgs, err := ToMessages(rendered, DataArgument[any]{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleUser, msgs[0].Role)
}

func TestToMessages_MediaPart(t *testing.T) {
	t.Parallel()
	rendered := "look: <<<dotprompt:media:url https://x/y.png image/png>>>"
	msgs, err := ToMessages(rendered, DataArgument[any]{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Content, 2)
	assert.Equal(t, "look: ", msgs[0].Content[0].(TextPart).Text)
	media := msgs[0].Content[1].(MediaPart)
	assert.Equal(t, "https://x/y.png", media.URL)
	assert.Equal(t, "image/png", media.ContentType)
}

func TestToMessages_MediaPartNoContentType(t *testing.T) {
	t.Parallel()
	rendered := "<<<dotprompt:media:url https://x/y.png>>>"
	msgs, err := ToMessages(rendered, DataArgument[any]{})
	require.NoError(t, err)
	media := msgs[0].Content[0].(MediaPart)
	assert.Equal(t, "https://x/y.png", media.URL)
	assert.Empty(t, media.ContentType)
}

func TestToMessages_InvalidMediaPiece(t *testing.T) {
	t.Parallel()
	rendered := "<<<dotprompt:media:url a b c d>>>"
	_, err := ToMessages(rendered, DataArgument[any]{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMarker)
}

func TestToMessages_SectionPart(t *testing.T) {
	t.Parallel()
	rendered := "<<<dotprompt:section output>>>"
	msgs, err := ToMessages(rendered, DataArgument[any]{})
	require.NoError(t, err)
	pending := msgs[0].Content[0].(PendingPart)
	assert.Equal(t, "output", pending.Purpose)
	assert.Equal(t, true, pending.Metadata["pending"])
}

func TestToMessages_HistoryMarker(t *testing.T) {
	t.Parallel()
	history := []Message{
		{Role: RoleUser, Content: []Part{TextPart{Text: "first"}}},
		{Role: RoleModel, Content: []Part{TextPart{Text: "second"}}},
	}
	rendered := "<<<dotprompt:role:system>>>sys<<<dotprompt:history>>>reply now"
	msgs, err := ToMessages(rendered, DataArgument[any]{Messages: history})
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, "history", msgs[1].Metadata["purpose"])
	assert.Equal(t, RoleModel, msgs[2].Role)
	assert.Equal(t, "history", msgs[2].Metadata["purpose"])
	assert.Equal(t, RoleModel, msgs[3].Role)
	assert.Equal(t, "reply now", msgs[3].Content[0].(TextPart).Text)
}

func TestToMessages_HistoryPostPassBeforeLastUser(t *testing.T) {
	t.Parallel()
	history := []Message{
		{Role: RoleUser, Content: []Part{TextPart{Text: "old question"}}},
	}
	rendered := "<<<dotprompt:role:system>>>be nice<<<dotprompt:role:user>>>new question"
	msgs, err := ToMessages(rendered, DataArgument[any]{Messages: history})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, "history", msgs[1].Metadata["purpose"])
	assert.Equal(t, "old question", msgs[1].Content[0].(TextPart).Text)
	assert.Equal(t, RoleUser, msgs[2].Role)
	assert.Equal(t, "new question", msgs[2].Content[0].(TextPart).Text)
}

func TestToMessages_HistoryPostPassAppendWhenLastIsNotUser(t *testing.T) {
	t.Parallel()
	history := []Message{
		{Role: RoleUser, Content: []Part{TextPart{Text: "old"}}},
	}
	rendered := "<<<dotprompt:role:system>>>be nice"
	msgs, err := ToMessages(rendered, DataArgument[any]{Messages: history})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, "history", msgs[1].Metadata["purpose"])
}

func TestToMessages_HistoryPostPassEmptyMessagesReturnsHistoryVerbatim(t *testing.T) {
	t.Parallel()
	history := []Message{
		{Role: RoleUser, Content: []Part{TextPart{Text: "old"}}},
	}
	msgs, err := ToMessages("   ", DataArgument[any]{Messages: history})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Nil(t, msgs[0].Metadata)
	assert.Equal(t, "old", msgs[0].Content[0].(TextPart).Text)
}

func TestToMessages_NoHistoryNoOp(t *testing.T) {
	t.Parallel()
	msgs, err := ToMessages("hi", DataArgument[any]{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}
