package construct

import (
	"fmt"

	"github.com/danmuck/railcan/internal/vlcb"
)

// BusHalt tells every node the bus is unavailable and no further packets
// should be sent until a BusResume or a system reset.
func BusHalt() Payload {
	return packet(vlcb.OpHLT)
}

// BusResume tells every node the bus is available again after a halt.
func BusResume() Payload {
	return packet(vlcb.OpBON)
}

// Ack is the general affirmative reply to a query or request.
func Ack() Payload {
	return packet(vlcb.OpACK)
}

// Nack is the general negative reply to a denied query or request.
func Nack() Payload {
	return packet(vlcb.OpNAK)
}

// SendDebug carries one freeform status octet for module development.
// Never emitted during normal operation.
func SendDebug(status uint8) Payload {
	return packet(vlcb.OpDBG1, status)
}

// FastClock builds the layout fast-clock broadcast. hours is the 24-hour
// form. accel of 0 freezes the clock, 1 runs realtime and higher values
// run that many times faster.
func FastClock(mins, hours, accel uint8, wd vlcb.Weekday, month vlcb.Month, monthDay uint8, temperature int8) (Payload, error) {
	if mins > 59 || hours > 23 {
		return Payload{}, fmt.Errorf("%w: clock %02d:%02d", ErrBadValue, hours, mins)
	}
	if monthDay < 1 || monthDay > 31 {
		return Payload{}, fmt.Errorf("%w: month day %d", ErrBadValue, monthDay)
	}
	wdmon := vlcb.PackWeekdayMonth(wd, month)
	return packet(vlcb.OpFCLK, mins, hours, wdmon, accel, monthDay, byte(temperature)), nil
}
