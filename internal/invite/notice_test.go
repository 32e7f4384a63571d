package invite

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotices(t *testing.T) {
	assert.Nil(t, PastedNotice(0))
	assert.Equal(t, "Added 1 email from clipboard.", PastedNotice(1).Description)
	assert.Equal(t, "Added 3 emails from clipboard.", PastedNotice(3).Description)

	n := ImportedNotice(ImportReport{Valid: 1, Invalid: 0})
	assert.Equal(t, "Found 1 valid email and 0 invalid emails.", n.Description)

	assert.Equal(t, "Sent 2 invitations.", SentNotice(SendResult{Success: true, Count: 2}).Description)
	assert.Equal(t, VariantSuccess, TemplateNotice().Variant)
}

func TestErrorNotice(t *testing.T) {
	assert.Nil(t, ErrorNotice(nil))

	wrapped := fmt.Errorf("%w: %w", ErrSendFailed, fmt.Errorf("dial tcp: refused"))
	n := ErrorNotice(wrapped)
	assert.Equal(t, "Failed to send invitations", n.Title)
	assert.Equal(t, VariantDestructive, n.Variant)
	assert.NotContains(t, n.Description, "dial tcp")

	assert.Equal(t, "Invalid file type", ErrorNotice(ErrUnsupportedFileType).Title)
	assert.Equal(t, "Something went wrong", ErrorNotice(fmt.Errorf("boom")).Title)
}
