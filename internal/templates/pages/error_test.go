package pages

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorPage_EscapesMessage(t *testing.T) {
	var sb strings.Builder
	err := ErrorPage(http.StatusNotFound, `<script>alert("x")</script>`).Render(context.Background(), &sb)
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, "<h1>404</h1><h2>Not Found</h2>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "<title>Not Found · CRM</title>")
}
