package config

import (
	"ampnode/devscan"
	"ampnode/line"
	"ampnode/logx"
	"ampnode/message"
)

// Runtime holds the Lines Apply builds from a loaded Config: one IAX2 line,
// one USB line and one SDRC line. The HTTP surface and the Bridge are not
// part of it; cmd/ampnode constructs those itself. Config values are
// validated earlier, by Load/ParseBytes; Apply reports device and GPIO
// resolution failures as errors rather than aborting.
type Runtime struct {
	IAX2 *line.LineIAX2
	USB  *line.LineUsb
	SDRC *line.LineSDRC
}

// Deps supplies the transports Apply needs to construct Lines; cmd/ampnode
// owns their lifetimes and passes them in so config stays free of direct
// hardware/network dependencies.
type Deps struct {
	IAX2Transport  line.IAX2Transport
	SDRCPort       line.SerialPort
	USBNativeHz    int
	InternalHz     int
	GPIOChipOffset string // "chip:offset", resolved when ASLCOSFrom == "usb"
	OnMessage      func(message.Message)
	Log            *logx.Log
}

// Apply wires a validated Config into a Runtime. USB audio device and COS
// source resolution go through devscan; a DeviceNotFound/DeviceBusy error
// here is reported to the caller (cmd/ampnode logs it and continues with an
// empty Runtime) rather than treated as fatal.
func Apply(cfg Config, deps Deps) (*Runtime, error) {
	rt := &Runtime{}

	rt.IAX2 = line.NewLineIAX2(1, deps.IAX2Transport, deps.Log, deps.OnMessage)

	if cfg.ASLAudioDevice != "" {
		devNode, err := resolveAudioDevice(cfg.ASLAudioDevice)
		if err != nil {
			return nil, err
		}
		dev := devscan.NewAlsaPCMDevice(devNode, false)

		var cos line.ChannelOpenSquelchSource = noopCOS{}
		if cfg.ASLCOSFrom == "usb" && deps.GPIOChipOffset != "" {
			chip, offset, err := devscan.ParseGPIOSpec(deps.GPIOChipOffset)
			if err != nil {
				return nil, err
			}
			gpioSrc, err := devscan.NewGPIOCOSSource(chip, offset)
			if err != nil {
				return nil, err
			}
			cos = gpioSrc
		}
		cos = line.NewChannelOpenSquelchSource(cos, cfg.ASLCOSInvert)

		rt.USB = line.NewLineUsb(2, dev, cos, deps.USBNativeHz, deps.InternalHz, deps.Log, deps.OnMessage)
	}

	if deps.SDRCPort != nil {
		rt.SDRC = line.NewLineSDRC(3, deps.SDRCPort, deps.Log, deps.OnMessage)
	}

	return rt, nil
}

// resolveAudioDevice implements the "usb <query>" config syntax for
// aslAudioDevice.
func resolveAudioDevice(spec string) (string, error) {
	const prefix = "usb "
	query := ""
	if len(spec) > len(prefix) && spec[:len(prefix)] == prefix {
		query = spec[len(prefix):]
	}
	return devscan.ResolveUSBSoundDevice(query)
}

type noopCOS struct{}

func (noopCOS) COSActive() bool { return false }
