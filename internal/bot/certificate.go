package bot

import (
	"fmt"
	"net/url"

	"github.com/ollashukur/testbot/internal/grading"
)

// certificateURL builds the GET URL for the external image-rendering
// service. The query keys are the service's documented parameters; values
// are percent-encoded by url.Values.
func certificateURL(base, solverName, subject, creatorName string, correct int, percentage float64, tier grading.Tier) string {
	v := url.Values{}
	v.Set("ism", solverName)
	v.Set("fan", subject)
	v.Set("admin", creatorName)
	v.Set("soni", fmt.Sprintf("%d ta (%.0f%%)", correct, percentage))
	v.Set("orin", fmt.Sprintf("%d", tier.Level))
	return base + "?" + v.Encode()
}
