package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/kiosk/pkg/adapters/memory"
	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/ports"
	contract "github.com/aretw0/kiosk/pkg/ports/tests"
)

func TestInMemoryPages_Contract(t *testing.T) {
	data := map[string]string{
		"help":   "Ask away",
		"coupon": "No coupons today",
	}
	contract.PageSourceContractTest(t, memory.NewPages(data), data)
}

func TestDefaultPages(t *testing.T) {
	pages := memory.DefaultPages()
	ids, err := pages.ListPages(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		ports.PageHelp, ports.PageUserGuide, ports.PageRefEarn, ports.PageCoupon, ports.PageFriendlyServices,
	}, ids)

	guide, err := pages.Page(context.Background(), ports.PageUserGuide)
	require.NoError(t, err)
	assert.Contains(t, guide.Body, "Choose your country")
}

func TestNewFromPages_MissingID(t *testing.T) {
	_, err := memory.NewFromPages(domain.Page{Body: "orphan"})
	assert.Error(t, err)
}
