package poller

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/me/goqe/internal/result"
	"github.com/me/goqe/pkg/model"
)

// resultMember is the JSON document inside the fetched archive. The archive
// layout is a fixed wire contract with the platform: a gzip-compressed tar
// containing this one file.
const resultMember = "workflow_result.json"

// fetchArtifact downloads the result archive from location, decompresses it,
// and decodes the contained JSON document.
func (p *Poller) fetchArtifact(ctx context.Context, workflowID, location string) (result.Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build artifact request: %w", err)
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch artifact: HTTP %d", resp.StatusCode)
	}

	artifact, err := decodeArtifact(resp.Body)
	if err != nil {
		return nil, &model.ResultFormatError{
			WorkflowID: workflowID,
			Reason:     err.Error(),
			Err:        err,
		}
	}
	return artifact, nil
}

// decodeArtifact unpacks the gzip tar stream and parses the result document.
func decodeArtifact(r io.Reader) (result.Artifact, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("retrieved result is not a gzip archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("archive has no %s member", resultMember)
		}
		if err != nil {
			return nil, fmt.Errorf("retrieved result is not a tar archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || filepathBase(hdr.Name) != resultMember {
			continue
		}

		var artifact result.Artifact
		if err := json.NewDecoder(tr).Decode(&artifact); err != nil {
			return nil, fmt.Errorf("decode %s: %w", resultMember, err)
		}
		return artifact, nil
	}
}

// filepathBase trims any directory prefix from a tar member name without
// pulling in platform path semantics.
func filepathBase(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}
