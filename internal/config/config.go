package config

import (
	"os"
	"time"

	"github.com/zeebo/errs"
	"gopkg.in/yaml.v3"
)

var Error = errs.Class("config")

type Config struct {
	Browser   Browser   `yaml:"browser"`
	Traversal Traversal `yaml:"traversal"`
	Courses   Courses   `yaml:"courses"`
}

type Browser struct {
	URL         string `yaml:"url"`
	DebuggerURL string `yaml:"debugger_url"`
	Bin         string `yaml:"bin"`
	Headless    bool   `yaml:"headless"`
	// ListenerTTL evicts page callbacks that were never fired, e.g. because
	// the page navigated away.
	ListenerTTL time.Duration `yaml:"listener_ttl"`
}

type Traversal struct {
	OuterFrameSelector string        `yaml:"outer_frame_selector"`
	InnerFrameSelector string        `yaml:"inner_frame_selector"`
	VideoSelector      string        `yaml:"video_selector"`
	WaitTimeout        time.Duration `yaml:"wait_timeout"`
	MaxLoadDeferrals   int           `yaml:"max_load_deferrals"`
	SettleDelay        time.Duration `yaml:"settle_delay"`
	Volume             float64       `yaml:"volume"`
	AudioSource        string        `yaml:"audio_source"`
	AdvanceDelay       time.Duration `yaml:"advance_delay"`
	SuppressedEvent    string        `yaml:"suppressed_event"`
}

type Courses struct {
	ListSelector  string        `yaml:"list_selector"`
	EntrySelector string        `yaml:"entry_selector"`
	ActiveClass   string        `yaml:"active_class"`
	WaitTimeout   time.Duration `yaml:"wait_timeout"`
	ReloadDelay   time.Duration `yaml:"reload_delay"`
}

func Default() Config {
	return Config{
		Browser: Browser{
			Headless:    false,
			ListenerTTL: 6 * time.Hour,
		},
		Traversal: Traversal{
			OuterFrameSelector: "#iframe",
			InnerFrameSelector: "iframe",
			VideoSelector:      "#video_html5_api",
			WaitTimeout:        10 * time.Second,
			MaxLoadDeferrals:   3,
			SettleDelay:        10 * time.Second,
			Volume:             0.01,
			AudioSource:        "//music.163.com/outchain/player?type=2&id=2541479&auto=1",
			AdvanceDelay:       10 * time.Second,
			SuppressedEvent:    "mouseout",
		},
		Courses: Courses{
			ListSelector:  "#coursetree",
			EntrySelector: ".posCatalog_name",
			ActiveClass:   "posCatalog_active",
			WaitTimeout:   10 * time.Second,
			ReloadDelay:   10 * time.Second,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, Error.Wrap(err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, Error.Wrap(err)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var group errs.Group

	t := c.Traversal
	if t.OuterFrameSelector == "" || t.InnerFrameSelector == "" || t.VideoSelector == "" {
		group.Add(Error.New("traversal selectors must not be empty"))
	}
	if t.WaitTimeout <= 0 {
		group.Add(Error.New("traversal.wait_timeout must be positive, got %s", t.WaitTimeout))
	}
	if t.MaxLoadDeferrals < 0 {
		group.Add(Error.New("traversal.max_load_deferrals must not be negative"))
	}
	if t.SettleDelay < 0 || t.AdvanceDelay < 0 {
		group.Add(Error.New("traversal delays must not be negative"))
	}
	if t.Volume < 0 || t.Volume > 1 {
		group.Add(Error.New("traversal.volume must be within [0, 1], got %v", t.Volume))
	}

	cs := c.Courses
	if cs.ListSelector == "" || cs.EntrySelector == "" || cs.ActiveClass == "" {
		group.Add(Error.New("course selectors must not be empty"))
	}
	if cs.WaitTimeout <= 0 {
		group.Add(Error.New("courses.wait_timeout must be positive, got %s", cs.WaitTimeout))
	}
	if cs.ReloadDelay < 0 {
		group.Add(Error.New("courses.reload_delay must not be negative"))
	}

	return group.Err()
}
