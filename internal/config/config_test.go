package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestInitSetsDefaults(t *testing.T) {
	viper.Reset()
	File = ""
	t.Setenv("HOME", t.TempDir())

	Init()

	if got := viper.GetString("device"); got != "/dev/dri/card0" {
		t.Errorf("device default = %q, want /dev/dri/card0", got)
	}
	if got := viper.GetInt("width"); got != 1920 {
		t.Errorf("width default = %d, want 1920", got)
	}
	if got := viper.GetInt("height"); got != 1080 {
		t.Errorf("height default = %d, want 1080", got)
	}
	if got := viper.GetString("double_buffering"); got != "double" {
		t.Errorf("double_buffering default = %q, want double", got)
	}
	if got := viper.GetBool("debug"); got {
		t.Error("debug default should be false")
	}
}

func TestInitHonorsExplicitConfigFile(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	path := dir + "/custom.toml"
	if err := os.WriteFile(path, []byte("width = 640\nheight = 480\n"), 0644); err != nil {
		t.Fatal(err)
	}

	File = path
	defer func() { File = "" }()

	Init()

	if got := viper.GetInt("width"); got != 640 {
		t.Errorf("width from explicit config = %d, want 640", got)
	}
	if got := viper.GetInt("height"); got != 480 {
		t.Errorf("height from explicit config = %d, want 480", got)
	}
}
