package adb

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/blackwell-systems/appsize/internal/inventory"
)

// badging is the subset of `aapt dump badging` output we use.
type badging struct {
	Label string
	// Icons maps density (dpi) to the icon path inside the APK. Density 0
	// holds the density-independent application-icon entry.
	Icons map[int]string
}

// BestIcon returns the densest icon path with a raster extension. aapt lists
// adaptive icons as anydpi (density 65534 or 65535) XML, which cannot be
// drawn, so those only win when no raster entry exists.
func (b badging) BestIcon() string {
	densities := make([]int, 0, len(b.Icons))
	for d := range b.Icons {
		densities = append(densities, d)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(densities)))

	fallback := ""
	for _, d := range densities {
		p := b.Icons[d]
		if p == "" {
			continue
		}
		if rasterExt[strings.ToLower(path.Ext(p))] {
			return p
		}
		if fallback == "" {
			fallback = p
		}
	}
	return fallback
}

// badging runs aapt on the package's pulled APK. The result is kept with the
// pulled copy, so the label and icon passes run aapt once between them.
func (c *Client) badging(ctx context.Context, pkg inventory.Package) (badging, error) {
	if c.AaptPath == "" {
		return badging{}, errors.New("aapt not configured")
	}
	if b, ok := c.apks.badgingOf(pkg.Name); ok {
		return b, nil
	}
	local, err := c.pullAPK(ctx, pkg)
	if err != nil {
		return badging{}, err
	}

	out, err := c.exec(ctx, c.timeout(), c.AaptPath, "dump", "badging", local)
	if err != nil {
		return badging{}, fmt.Errorf("aapt dump badging failed for %s: %w", pkg.Name, err)
	}
	b := parseBadging(string(out))
	c.apks.setBadging(pkg.Name, b)
	return b, nil
}

// parseBadging reads the application label and icon entries, e.g.
//
//	application-label:'Settings'
//	application-icon-160:'res/mipmap-mdpi-v4/ic_launcher.png'
//	application: label='Settings' icon='res/mipmap-anydpi-v26/ic_launcher.xml'
func parseBadging(output string) badging {
	b := badging{Icons: make(map[int]string)}
	var fallbackLabel string

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), "'\"")

		switch {
		case key == "application-label":
			b.Label = value
		case strings.HasPrefix(key, "application-label-") && fallbackLabel == "":
			fallbackLabel = value
		case strings.HasPrefix(key, "application-icon-"):
			if dpi, err := strconv.Atoi(strings.TrimPrefix(key, "application-icon-")); err == nil {
				b.Icons[dpi] = value
			}
		case key == "application":
			if icon := quotedAttr(line, "icon"); icon != "" {
				if _, ok := b.Icons[0]; !ok {
					b.Icons[0] = icon
				}
			}
			if fallbackLabel == "" {
				fallbackLabel = quotedAttr(line, "label")
			}
		}
	}
	if b.Label == "" {
		b.Label = fallbackLabel
	}
	return b
}

// quotedAttr extracts attr='value' from an aapt line.
func quotedAttr(line, attr string) string {
	marker := " " + attr + "='"
	idx := strings.Index(line, marker)
	if idx < 0 {
		return ""
	}
	rest := line[idx+len(marker):]
	end := strings.IndexByte(rest, '\'')
	if end < 0 {
		return ""
	}
	return rest[:end]
}
