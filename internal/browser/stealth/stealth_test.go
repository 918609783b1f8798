package stealth

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/chromedp/chromedp"
	rodstealth "github.com/go-rod/stealth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

func TestNewProfile_DrawsFromPools(t *testing.T) {
	pools := DefaultPools()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		p, err := NewProfile(rng, pools)
		require.NoError(t, err)
		assert.Contains(t, pools.UserAgents, p.UserAgent)
		assert.Contains(t, pools.Viewports, p.Viewport)
		assert.Contains(t, pools.Locales, p.Locale)
		assert.Contains(t, pools.AcceptLanguages, p.AcceptLanguage)
		assert.True(t, p.Overrides.HideWebdriver)
		assert.Positive(t, p.Overrides.Plugins)
		assert.Equal(t, LanguagesFrom(p.AcceptLanguage), p.Overrides.Languages)
		assert.Equal(t, PlatformFor(p.UserAgent), p.Platform)
	}
}

func TestNewProfile_SameSeedSameProfile(t *testing.T) {
	a, err := NewProfile(rand.New(rand.NewSource(99)), DefaultPools())
	require.NoError(t, err)
	b, err := NewProfile(rand.New(rand.NewSource(99)), DefaultPools())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNewProfile_EmptyPool(t *testing.T) {
	pools := DefaultPools()
	pools.Locales = nil
	_, err := NewProfile(rand.New(rand.NewSource(1)), pools)
	assert.ErrorIs(t, err, ErrEmptyPool)

	pools = DefaultPools()
	pools.Viewports = []schemas.Size{{Width: 0, Height: 800}}
	assert.Error(t, pools.Validate())
}

func TestLanguagesFrom(t *testing.T) {
	assert.Equal(t, []string{"tr-TR", "tr", "en"}, LanguagesFrom("tr-TR,tr;q=0.9,en;q=0.8"))
	assert.Equal(t, []string{"en-GB", "en"}, LanguagesFrom(" en-GB , en;q=0.9 "))
	assert.Empty(t, LanguagesFrom(""))
}

func TestPlatformFor(t *testing.T) {
	pools := DefaultPools()
	assert.Equal(t, "Win32", PlatformFor(pools.UserAgents[0]))
	assert.Equal(t, "MacIntel", PlatformFor(pools.UserAgents[1]))
	assert.Equal(t, "Linux x86_64", PlatformFor("Mozilla/5.0 (X11; Linux x86_64)"))
}

func TestOverrideScript(t *testing.T) {
	p, err := NewProfile(rand.New(rand.NewSource(3)), DefaultPools())
	require.NoError(t, err)

	script, err := OverrideScript(p, false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(script, "const QUICKFINDER_PROFILE = {"))
	assert.Contains(t, script, `"hideWebdriver":true`)
	assert.Contains(t, script, "'webdriver'")
	assert.Contains(t, script, "'plugins'")
	assert.Contains(t, script, "'languages'")
	assert.NotContains(t, script, rodstealth.JS)

	extended, err := OverrideScript(p, true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(extended, rodstealth.JS))
	assert.True(t, strings.HasSuffix(extended, script))
}

func TestLaunchFlags(t *testing.T) {
	p := Profile{Locale: "tr-TR", Viewport: schemas.Size{Width: 1366, Height: 768}}

	flags := LaunchFlags(p, false, []string{"--proxy-server=http://127.0.0.1:8080", "--mute-audio", "--"})
	assert.Equal(t, false, flags["enable-automation"])
	assert.Equal(t, false, flags["headless"])
	assert.Equal(t, "AutomationControlled", flags["disable-blink-features"])
	assert.Equal(t, "1366,768", flags["window-size"])
	assert.Equal(t, "tr-TR", flags["lang"])
	assert.Equal(t, "http://127.0.0.1:8080", flags["proxy-server"])
	assert.Equal(t, true, flags["mute-audio"])
	assert.NotContains(t, flags, "")

	headless := LaunchFlags(p, true, nil)
	assert.Equal(t, true, headless["headless"])
}

func TestAllocatorOptions_Extends(t *testing.T) {
	p := Profile{UserAgent: "UA", Viewport: schemas.Size{Width: 1200, Height: 800}}
	opts := AllocatorOptions(p, true, "/usr/bin/chromium", nil)
	want := len(chromedp.DefaultExecAllocatorOptions) + len(LaunchFlags(p, true, nil)) + 3
	assert.Len(t, opts, want)
}

func TestApply_BuildsTasks(t *testing.T) {
	p, err := NewProfile(rand.New(rand.NewSource(5)), DefaultPools())
	require.NoError(t, err)
	tasks := Apply(p, false, zap.NewNop())
	assert.Len(t, tasks, 7)
}
