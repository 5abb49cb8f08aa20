// SPDX-License-Identifier: Apache-2.0

package progress

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
)

type Bar interface {
	Add(int) error
	Close() error
}

type ProgressBar struct {
	*progressbar.ProgressBar
}

// NewRecordsBar returns a progress bar sized to the number of records in a
// batch, rendered while the validation run progresses.
func NewRecordsBar(totalRecords int, description string) *ProgressBar {
	return &ProgressBar{
		ProgressBar: progressbar.NewOptions(totalRecords,
			progressbar.OptionShowCount(),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionSetWidth(20),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetDescription(description),
			progressbar.OptionOnCompletion(func() {
				fmt.Printf("\n") //nolint:forbidigo
			}),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			})),
	}
}

type NoopBar struct{}

func (NoopBar) Add(int) error { return nil }
func (NoopBar) Close() error  { return nil }
