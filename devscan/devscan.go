// Package devscan resolves the "usb <query>" / "usb" configuration values
// (aslAudioDevice, aslCosFrom) into concrete ALSA sound card device nodes
// and HID/GPIO channel-open-squelch lines. It is an external collaborator
// outside the core: the core depends only on the line.AudioDevice /
// line.ChannelOpenSquelchSource interfaces this package implements.
package devscan

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/jochenvg/go-udev"
	"github.com/warthog618/go-gpiocdev"

	"ampnode/errs"
)

// ResolveUSBSoundDevice enumerates ALSA "sound" subsystem devices over udev
// and returns the device node of the first USB-attached card whose udev
// properties contain query as a substring (matched against ID_VENDOR,
// ID_MODEL and the card's sysname), per the "usb <query>" config syntax.
func ResolveUSBSoundDevice(query string) (string, error) {
	u := udev.Udev{}
	enum := u.NewEnumerate()
	if err := enum.AddMatchSubsystem("sound"); err != nil {
		return "", errs.New(errs.DeviceNotFound, err)
	}
	devices, err := enum.Devices()
	if err != nil {
		return "", errs.New(errs.DeviceNotFound, err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	for _, d := range devices {
		if d.Devnode() == "" {
			continue
		}
		props := d.Properties()
		if props["ID_BUS"] != "usb" {
			continue
		}
		haystack := strings.ToLower(d.Sysname() + " " + props["ID_VENDOR"] + " " + props["ID_MODEL"])
		if query == "" || strings.Contains(haystack, query) {
			return d.Devnode(), nil
		}
	}
	return "", errs.Newf(errs.DeviceNotFound, "no USB sound device matching %q", query)
}

// ListUSBSoundDevices enumerates every USB-attached ALSA sound device,
// feeding the GET /audiodevice-list HTTP surface.
func ListUSBSoundDevices() ([]string, error) {
	u := udev.Udev{}
	enum := u.NewEnumerate()
	if err := enum.AddMatchSubsystem("sound"); err != nil {
		return nil, errs.New(errs.DeviceNotFound, err)
	}
	devices, err := enum.Devices()
	if err != nil {
		return nil, errs.New(errs.DeviceNotFound, err)
	}
	var out []string
	for _, d := range devices {
		if d.Properties()["ID_BUS"] != "usb" || d.Devnode() == "" {
			continue
		}
		out = append(out, d.Devnode())
	}
	return out, nil
}

// AlsaPCMDevice implements line.AudioDevice over a resolved ALSA device
// node. The core treats ALSA as an out-of-scope external collaborator, so
// this is a thin raw-node reader/writer rather than a full ALSA
// PCM-protocol client; a production deployment would swap this for a cgo
// ALSA binding behind the same interface.
type AlsaPCMDevice struct {
	devNode string
	stereo  bool

	mu   sync.Mutex
	file *os.File
}

// NewAlsaPCMDevice constructs a device bound to devNode (as resolved by
// ResolveUSBSoundDevice).
func NewAlsaPCMDevice(devNode string, stereo bool) *AlsaPCMDevice {
	return &AlsaPCMDevice{devNode: devNode, stereo: stereo}
}

func (d *AlsaPCMDevice) Open() error {
	f, err := os.OpenFile(d.devNode, os.O_RDWR, 0)
	if err != nil {
		return errs.New(errs.DeviceBusy, err)
	}
	d.mu.Lock()
	d.file = f
	d.mu.Unlock()
	return nil
}

func (d *AlsaPCMDevice) Close() error {
	d.mu.Lock()
	f := d.file
	d.file = nil
	d.mu.Unlock()
	if f == nil {
		return nil
	}
	return f.Close()
}

func (d *AlsaPCMDevice) Stereo() bool { return d.stereo }

// ReadCapture returns whatever interleaved PCM16LE bytes are immediately
// available; a short or zero read is treated as "nothing captured yet"
// rather than an error, matching the non-blocking contract line.AudioDevice
// requires.
func (d *AlsaPCMDevice) ReadCapture() []byte {
	d.mu.Lock()
	f := d.file
	d.mu.Unlock()
	if f == nil {
		return nil
	}
	buf := make([]byte, 4096)
	n, err := f.Read(buf)
	if err != nil || n <= 0 {
		return nil
	}
	return buf[:n]
}

func (d *AlsaPCMDevice) WritePlayback(pcm []byte) {
	d.mu.Lock()
	f := d.file
	d.mu.Unlock()
	if f == nil || len(pcm) == 0 {
		return
	}
	_, _ = f.Write(pcm)
}

// GPIOCOSSource implements line.ChannelOpenSquelchSource over a requested
// gpiocdev input line, the HID-free GPIO equivalent of the original's
// HID-mapped COS source.
type GPIOCOSSource struct {
	l *gpiocdev.Line
}

// NewGPIOCOSSource requests offset as an input line on chip (e.g.
// "gpiochip0") and returns a ChannelOpenSquelchSource reading its level.
func NewGPIOCOSSource(chip string, offset int) (*GPIOCOSSource, error) {
	l, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsInput)
	if err != nil {
		return nil, errs.New(errs.DeviceNotFound, err)
	}
	return &GPIOCOSSource{l: l}, nil
}

// COSActive reports the raw (uninverted) line level; aslCosInvert is
// applied by line.NewChannelOpenSquelchSource, not here.
func (s *GPIOCOSSource) COSActive() bool {
	v, err := s.l.Value()
	if err != nil {
		return false
	}
	return v != 0
}

func (s *GPIOCOSSource) Close() error { return s.l.Close() }

// ParseGPIOSpec parses a "gpiochipN:offset" COS GPIO spec (config.Deps'
// GPIOChipOffset) into its chip name and line offset.
func ParseGPIOSpec(spec string) (chip string, offset int, err error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return "", 0, errs.Newf(errs.ConfigInvalid, "COS GPIO spec must be \"chip:offset\", got %q", spec)
	}
	offset, convErr := strconv.Atoi(parts[1])
	if convErr != nil {
		return "", 0, errs.Newf(errs.ConfigInvalid, "COS GPIO offset must be numeric, got %q", parts[1])
	}
	return parts[0], offset, nil
}

// SerialFilePort implements line.SerialPort over a tty device node. Like
// AlsaPCMDevice, this is a raw-node reader/writer rather than a full
// termios-configuring serial client, since the serial port protocol is an
// out-of-scope external collaborator.
type SerialFilePort struct {
	devNode string

	mu   sync.Mutex
	file *os.File
}

// NewSerialFilePort constructs a SerialFilePort bound to a tty device node
// such as "/dev/ttyUSB0".
func NewSerialFilePort(devNode string) *SerialFilePort {
	return &SerialFilePort{devNode: devNode}
}

func (p *SerialFilePort) Open() error {
	f, err := os.OpenFile(p.devNode, os.O_RDWR, 0)
	if err != nil {
		return errs.New(errs.DeviceBusy, err)
	}
	p.mu.Lock()
	p.file = f
	p.mu.Unlock()
	return nil
}

func (p *SerialFilePort) Close() error {
	p.mu.Lock()
	f := p.file
	p.file = nil
	p.mu.Unlock()
	if f == nil {
		return nil
	}
	return f.Close()
}

func (p *SerialFilePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	f := p.file
	p.mu.Unlock()
	if f == nil {
		return 0, errs.Newf(errs.DeviceNotFound, "serial port %s not open", p.devNode)
	}
	return f.Write(b)
}

// ReadAvailable returns whatever bytes are immediately available, never
// blocking: a short read or timeout is reported as "nothing yet".
func (p *SerialFilePort) ReadAvailable() []byte {
	p.mu.Lock()
	f := p.file
	p.mu.Unlock()
	if f == nil {
		return nil
	}
	buf := make([]byte, 4096)
	n, err := f.Read(buf)
	if err != nil || n <= 0 {
		return nil
	}
	return buf[:n]
}
