package descriptions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAllToolNamesSorted(t *testing.T) {
	assert.Equal(t, []string{
		"iep_analyze_student",
		"iep_classify_filename",
		"iep_list_students",
		"iep_server_info",
	}, GetAllToolNames())
}

func TestGetToolDescription(t *testing.T) {
	assert.Contains(t, GetToolDescription("iep_analyze_student"), "deep dive")
	assert.Equal(t, "Tool description not available", GetToolDescription("pdf_read_file"))
}
