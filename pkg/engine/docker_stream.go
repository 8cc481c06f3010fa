package engine

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/docker/docker/pkg/stdcopy"
)

// ErrNotFound is returned (wrapped) when an operation targets a
// container id that does not exist or is not dbarena-managed.
var ErrNotFound = errors.New("container not found")

// pullProgressDecoder streams the newline-delimited JSON objects Docker
// emits during ImagePull and turns each into a PullProgress.
type pullProgressDecoder struct {
	dec *json.Decoder
}

func newPullProgressDecoder(r io.Reader) *pullProgressDecoder {
	return &pullProgressDecoder{dec: json.NewDecoder(r)}
}

func (d *pullProgressDecoder) next() (PullProgress, error) {
	var line struct {
		Status         string `json:"status"`
		Progress       string `json:"progress"`
		ID             string `json:"id"`
		ErrorDetailMsg string `json:"error"`
	}
	if err := d.dec.Decode(&line); err != nil {
		return PullProgress{}, err
	}
	if line.ErrorDetailMsg != "" {
		return PullProgress{}, errors.New(line.ErrorDetailMsg)
	}
	detail := line.Progress
	if detail == "" {
		detail = line.ID
	}
	return PullProgress{Status: line.Status, Detail: detail}, nil
}

// decodeJSON is a thin helper so Stats' single decode call reads the
// same as the rest of the package.
func decodeJSON(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}

// demuxDockerStream splits the multiplexed stdout/stderr frame format
// Docker uses for attached exec streams into the two destinations.
func demuxDockerStream(r io.Reader, stdout, stderr io.Writer) error {
	_, err := stdcopy.StdCopy(stdout, stderr, r)
	return err
}
