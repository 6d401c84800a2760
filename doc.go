// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: Apache-2.0 OR MIT

/*
Package gpioreg is a library for controlling GPIO lines through the
memory-mapped registers of a GPIO block, such as that of the Raspberry Pi.

A [Bank] owns the mapping of a block of registers and provides word access
to them, including an atomic read-modify-write in [Bank.ModifyWord] that
allows lines sharing a register to be updated concurrently without
corrupting one another.

A [Line] controls a single line of the bank.  A line must be set to be an
output, using [Line.SetMode], before it can be written, and set to be an
input before it can be read.  Lines become stale when the bank they were
derived from is closed.

Where the registers live within the block is described by a [Layout].
[BCM2835] and [Generic] are provided, and other layouts may be described in
YAML and loaded with [ParseLayout].

Mapping the registers is performed by a [Mapper].  [DevMem] maps from a memory
device such as /dev/mem or /dev/gpiomem, which typically requires root
permissions.  The sim sub-package provides a simulated register block for
testing without hardware.

Only one Bank in the process may map a given range of registers at a time.
Coordinating access with other processes is the responsibility of the user.

# Example Usage

Blink GPIO17 on a Raspberry Pi 3:

	b, err := gpioreg.Open(gpioreg.BCM2836Base, 4096, gpioreg.WithDevice("/dev/gpiomem"))
	if err != nil {
		return err
	}
	defer b.Close()
	l, err := b.Line(17)
	err = l.SetMode(gpioreg.ModeOutput)
	for {
		err = l.Write(gpioreg.High)
		time.Sleep(500 * time.Millisecond)
		err = l.Write(gpioreg.Low)
		time.Sleep(500 * time.Millisecond)
	}
*/
package gpioreg
