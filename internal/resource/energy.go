package resource

import "errors"

// ErrCellNotCharged is returned when discharging an empty energy cell.
var ErrCellNotCharged = errors.New("energy cell not charged")

// Sunray is the payload that charges an energy cell. Minted by a Forge.
type Sunray struct {
	serial uint64
}

// Serial returns the forge-assigned sequence number.
func (s Sunray) Serial() uint64 { return s.serial }

// Asteroid is the payload of an asteroid strike. Minted by a Forge.
type Asteroid struct {
	serial uint64
}

// Serial returns the forge-assigned sequence number.
func (a Asteroid) Serial() uint64 { return a.serial }

// EnergyCell stores the energy of one sunray.
type EnergyCell struct {
	charged bool
}

// Charge consumes the sunray. Charging a charged cell wastes the sunray.
func (c *EnergyCell) Charge(_ Sunray) {
	c.charged = true
}

// Discharge empties the cell.
func (c *EnergyCell) Discharge() error {
	if !c.charged {
		return ErrCellNotCharged
	}
	c.charged = false
	return nil
}

// IsCharged reports whether the cell holds energy.
func (c *EnergyCell) IsCharged() bool {
	return c.charged
}

// Rocket defends a planet against one asteroid.
type Rocket struct {
	cellUsed bool
}

// BuildRocket discharges cell to build a rocket.
func BuildRocket(cell *EnergyCell) (*Rocket, error) {
	if cell == nil {
		return nil, ErrCellNotCharged
	}
	if err := cell.Discharge(); err != nil {
		return nil, err
	}
	return &Rocket{cellUsed: true}, nil
}
