package dockerutil

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/moby/term"
)

// ImageExists checks if a Docker image with the given tag exists locally.
func ImageExists(ctx context.Context, cli Engine, tag string) (bool, error) {
	f := filters.NewArgs()
	f.Add("reference", tag)
	imgs, err := cli.ImageList(ctx, types.ImageListOptions{Filters: f})
	if err != nil {
		return false, fmt.Errorf("image list: %w", err)
	}
	return len(imgs) > 0, nil
}

// PullImage pulls ref and renders the progress stream to out. The stream is
// always parsed so pull errors reported inside it are not lost when out is
// io.Discard.
func PullImage(ctx context.Context, cli Engine, ref string, out io.Writer) error {
	rc, err := cli.ImagePull(ctx, ref, types.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("image pull: %w", err)
	}
	defer rc.Close()
	fd, isTerm := term.GetFdInfo(out)
	if err := jsonmessage.DisplayJSONMessagesStream(rc, out, fd, isTerm, nil); err != nil {
		return fmt.Errorf("image pull %s: %w", ref, err)
	}
	return nil
}
