package main

import (
	"flag"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/rcinput/pkg/env"
	fx "github.com/robotalks/rcinput/pkg/framework"
	"github.com/robotalks/rcinput/pkg/rc/device"
	"github.com/robotalks/rcinput/pkg/rc/input"
	"github.com/robotalks/rcinput/pkg/telemetry"
)

var (
	receiverType = "serial"
	tickInterval = fx.DefaultInterval
)

func init() {
	env.SetupFlags()
	input.SetupFlags()
	device.SetupFlags()
	flag.StringVar(&receiverType, "rx", receiverType, "Receiver type: serial, none.")
	flag.DurationVar(&tickInterval, "tick", tickInterval, "Control loop interval.")
}

func openDevice() (device.Device, error) {
	switch receiverType {
	case "serial":
		return device.DefaultSerialConfig().NewSerialBus()
	case "none":
		return device.Null{}, nil
	}
	return nil, errors.Errorf("unknown receiver type %q", receiverType)
}

func main() {
	flag.Parse()

	conf, err := input.FromFlags()
	if err != nil {
		glog.Exitln(err)
	}
	dev, err := openDevice()
	if err != nil {
		glog.Exitln(err)
	}
	e := env.NewConfig().MustNewEnv()

	loop := fx.NewLoop()
	loop.Interval = tickInterval
	in := input.New(conf, dev)
	in.Annunciator = &telemetry.LoopAnnunciator{Loop: loop, Clock: loop.Clock}
	loop.Add(in, e, e.NewPublisher(in))

	glog.Infof("rcinputd %s: rx=%s interpolation=%s tick=%s",
		e.ID, receiverType, conf.Interpolation, tickInterval.Round(time.Microsecond))
	if err := fx.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		glog.Exitln(err)
	}
}
