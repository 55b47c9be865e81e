package uix

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"
)

// fakeDevice is an in-memory Device implementation recording interactions.
type fakeDevice struct {
	mu      sync.Mutex
	source  string   // returned when sources is drained
	sources []string // queued dump results, consumed front to back
	dumps   int

	clicks [][2]int
	swipes [][4]int
	texts  []string

	width, height int
	img           image.Image
	wait          time.Duration

	dumpErr error
}

func newFakeDevice(source string) *fakeDevice {
	return &fakeDevice{
		source: source,
		width:  1080,
		height: 1920,
		wait:   2 * time.Second,
	}
}

func (f *fakeDevice) Click(x, y int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, [2]int{x, y})
	return nil
}

func (f *fakeDevice) Swipe(fromX, fromY, toX, toY int, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swipes = append(f.swipes, [4]int{fromX, fromY, toX, toY})
	return nil
}

func (f *fakeDevice) WindowSize() (int, int, error) {
	return f.width, f.height, nil
}

func (f *fakeDevice) DumpHierarchy() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dumps++
	if f.dumpErr != nil {
		return "", f.dumpErr
	}
	if len(f.sources) > 0 {
		s := f.sources[0]
		f.sources = f.sources[1:]
		return s, nil
	}
	return f.source, nil
}

func (f *fakeDevice) Screenshot() (image.Image, error) {
	if f.img != nil {
		return f.img, nil
	}
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	return img, nil
}

func (f *fakeDevice) SendText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeDevice) WaitTimeout() time.Duration     { return f.wait }
func (f *fakeDevice) SetWaitTimeout(d time.Duration) { f.wait = d }

func (f *fakeDevice) dumpCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dumps
}

func (f *fakeDevice) lastClick() ([2]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.clicks) == 0 {
		return [2]int{}, fmt.Errorf("no clicks recorded")
	}
	return f.clicks[len(f.clicks)-1], nil
}

// solidImage returns a uniformly colored image of the given size.
func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

const settingsXML = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <node index="0" text="" resource-id="" class="android.widget.FrameLayout" package="com.android.settings" content-desc="" bounds="[0,0][1080,1920]" enabled="true">
    <node index="0" text="Settings" resource-id="com.android.settings:id/title" class="android.widget.TextView" package="com.android.settings" content-desc="" bounds="[0,0][200,50]" enabled="true" focusable="true" focused="false" scrollable="false" selected="false" long-clickable="false"/>
    <node index="1" text="Battery saver" resource-id="com.android.settings:id/title" class="android.widget.TextView" package="com.android.settings" content-desc="Battery usage" bounds="[0,50][200,100]" enabled="true"/>
    <node index="2" text="" resource-id="com.android.settings:id/icon" class="android.widget.ImageView$Round" package="com.android.settings" content-desc="icon" bounds="[200,0][260,50]" enabled="true"/>
  </node>
</hierarchy>`

const emptyXML = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <node index="0" text="" resource-id="" class="android.widget.FrameLayout" package="com.android.launcher" content-desc="" bounds="[0,0][1080,1920]" enabled="true"/>
</hierarchy>`
