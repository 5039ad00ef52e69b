package cmd

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"qualtrack/internal/errs"
	"qualtrack/internal/usecase/qualification"
)

// optionalString returns nil unless the flag was set on the command line.
func optionalString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetString(name)
	return &value
}

func optionalInt(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetInt(name)
	return &value
}

func requiredID(cmd *cobra.Command, name string) (uint64, error) {
	id, _ := cmd.Flags().GetUint64(name)
	if id == 0 {
		return 0, errors.New("--" + name + " is required")
	}
	return id, nil
}

func writeJSON(cmd *cobra.Command, value any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return errs.Wrap(err, "write json output")
	}
	return nil
}

// readAttachmentFile loads a local file as an upload payload; an empty path yields nil.
func readAttachmentFile(path string, mimeType string) (*qualification.AttachmentFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, "read attachment %q", path)
	}
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(path))
	}
	return &qualification.AttachmentFile{
		FileName:   filepath.Base(path),
		MimeType:   mimeType,
		DataBase64: base64.StdEncoding.EncodeToString(data),
	}, nil
}
