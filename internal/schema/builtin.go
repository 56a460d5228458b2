package schema

import (
	"emuinject/internal/binding"
	"emuinject/internal/kvstore"
	"emuinject/internal/lineconf"
	"emuinject/internal/patch"
)

func init() {
	for _, s := range builtin {
		register(s)
	}
}

var builtin = []Schema{
	{
		Name:       "retroarch",
		Format:     patch.Lines,
		Candidates: []string{"retroarch.cfg"},
		Template:   "retroarch.cfg",
		// Comments only start a line; '#' may appear inside quoted values.
		Lines: lineconf.Options{QuoteValues: true},
		Rules: []Rule{
			{Section: "video", Key: "fullscreen", Target: "video_fullscreen"},
			{Section: "video", Key: "vsync", Target: "video_vsync"},
			{Section: "paths", Key: "roms", Target: "rgui_browser_directory"},
			{Section: "paths", Key: "bios", Target: "system_directory"},
		},
	},
	{
		Name:       "mame",
		Format:     patch.Lines,
		Candidates: []string{"ini/mame.ini", "mame.ini"},
		Template:   "mame.ini",
		// No trailing comments: MAME reads the rest of the line as the value.
		Lines: lineconf.Options{Assign: lineconf.AssignWhitespace, Separator: "                  "},
		Rules: []Rule{
			{Section: "paths", Key: "roms", Target: "rompath", Policy: binding.AppendIfMissingEntry},
			{Section: "video", Key: "vsync", Target: "waitvsync", Bools: Digits},
			{Section: "ui", Key: "skip_intro", Target: "skip_gameinfo", Bools: Digits},
		},
	},
	{
		Name:       "mednafen",
		Format:     patch.Lines,
		Candidates: []string{"mednafen.cfg"},
		Template:   "mednafen.cfg",
		Lines:      lineconf.Options{Assign: lineconf.AssignWhitespace},
		Rules: []Rule{
			{Section: "video", Key: "fullscreen", Target: "video.fs", Bools: Digits},
			{Section: "video", Key: "vsync", Target: "video.glvsync", Bools: Digits},
			{Section: "paths", Key: "bios", Target: "filesys.path_firmware"},
		},
	},
	{
		Name:       "duckstation",
		Format:     patch.Lines,
		Candidates: []string{"settings.ini"},
		Template:   "duckstation.ini",
		Lines:      lineconf.Options{InlineComments: true},
		Rules: []Rule{
			{Section: "video", Key: "fullscreen", Scope: "Main", Target: "StartFullscreen"},
			{Section: "video", Key: "vsync", Scope: "Display", Target: "VSync"},
			{Section: "paths", Key: "bios", Scope: "BIOS", Target: "SearchDirectory"},
		},
	},
	{
		Name:       "pcsx2",
		Format:     patch.Lines,
		Candidates: []string{"inis/PCSX2.ini", "PCSX2.ini"},
		Template:   "pcsx2.ini",
		Lines:      lineconf.Options{InlineComments: true},
		Rules: []Rule{
			{Section: "video", Key: "fullscreen", Scope: "UI", Target: "StartFullscreen"},
			{Section: "video", Key: "vsync", Scope: "EmuCore/GS", Target: "VsyncEnable", Bools: Digits},
			{Section: "paths", Key: "bios", Scope: "Folders", Target: "Bios"},
		},
	},
	{
		Name:       "dolphin",
		Format:     patch.Lines,
		Candidates: []string{"User/Config/Dolphin.ini"},
		Template:   "dolphin.ini",
		Lines:      lineconf.Options{InlineComments: true},
		Rules: []Rule{
			{Section: "video", Key: "fullscreen", Scope: "Display", Target: "Fullscreen", Bools: Title},
			{Section: "video", Key: "backend", Scope: "Core", Target: "GFXBackend"},
		},
	},
	{
		Name:       "citra",
		Format:     patch.Lines,
		Candidates: []string{"user/config/qt-config.ini"},
		Template:   "citra.ini",
		// QSettings has no trailing comments.
		Lines: lineconf.Options{Separator: "="},
		Rules: []Rule{
			{Section: "video", Key: "fullscreen", Scope: "UI", Target: "fullscreen", Policy: binding.OverwriteAndClearDefaultFlag},
			{Section: "video", Key: "vsync", Scope: "Renderer", Target: "use_vsync_new", Policy: binding.OverwriteAndClearDefaultFlag},
		},
	},
	{
		Name:       "redream",
		Format:     patch.Lines,
		Candidates: []string{"redream.cfg"},
		Template:   "redream.cfg",
		Lines:      lineconf.Options{BlockScopes: true},
		Rules: []Rule{
			{Section: "video", Key: "fullscreen", Scope: "video", Target: "fullscreen", Bools: Digits},
			{Section: "video", Key: "vsync", Scope: "video", Target: "vsync", Bools: Digits},
			{Section: "paths", Key: "roms", Scope: "paths", Target: "library"},
		},
	},
	{
		Name:       "cemu",
		Format:     patch.XML,
		Candidates: []string{"settings.xml"},
		Template:   "cemu.xml",
		Rules: []Rule{
			{Section: "video", Key: "fullscreen", Target: "fullscreen"},
			{Section: "video", Key: "vsync", Scope: "Graphics", Target: "VSync", Bools: Digits},
			{Section: "paths", Key: "roms", Scope: "GamePaths", Target: "Entry", Policy: binding.AppendIfMissingEntry},
		},
	},
	{
		Name:       "ryujinx",
		Format:     patch.JSON,
		Candidates: []string{"portable/Config.json", "Config.json"},
		Template:   "ryujinx.json",
		Rules: []Rule{
			{Section: "video", Key: "fullscreen", Target: "start_fullscreen"},
			{Section: "video", Key: "vsync", Target: "enable_vsync"},
			{Section: "system", Key: "docked", Target: "docked_mode"},
		},
	},
	{
		Name:       "xenia",
		Format:     patch.TOML,
		Candidates: []string{"xenia-canary.config.toml", "xenia.config.toml"},
		Template:   "xenia.toml",
		Rules: []Rule{
			{Section: "video", Key: "fullscreen", Scope: "Display", Target: "fullscreen"},
			{Section: "video", Key: "vsync", Scope: "GPU", Target: "vsync"},
		},
	},
	{
		Name:       "rpcs3",
		Format:     patch.YAML,
		Candidates: []string{"config/config.yml", "config.yml"},
		Template:   "rpcs3.yml",
		Rules: []Rule{
			{Section: "video", Key: "vsync", Scope: "Video", Target: "VSync"},
			{Section: "video", Key: "fullscreen", Scope: "Miscellaneous", Target: "Start games in fullscreen mode"},
		},
	},
	{
		Name:       "stella",
		Format:     patch.SQLite,
		Candidates: []string{"settings.sqlite3"},
		Template:   "stella.sql",
		Table:      kvstore.Table{Name: "settings", KeyColumn: "setting", ValueColumn: "value"},
		Rules: []Rule{
			{Section: "video", Key: "fullscreen", Target: "fullscreen"},
			{Section: "video", Key: "vsync", Target: "vsync"},
			{Section: "paths", Key: "roms", Target: "romdir"},
		},
	},
}
