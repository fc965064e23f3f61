package bbcreco

const (
	NumChannels       = 256
	NumSamples        = 31
	NumBoards         = 16
	ChannelsPerBoard  = 16
	ChargeChPerBoard  = 8
	NumPmts           = 128
	NumArms           = 2
	PmtsPerArm        = NumPmts / NumArms
	NumPackets        = 2
	ChannelsPerPacket = NumChannels / NumPackets
	FirstPacketID     = 1001
)

type ChannelRole int

const (
	TimingChannel ChannelRole = iota
	ChargeChannel
)

func (r ChannelRole) String() string {
	switch r {
	case TimingChannel:
		return "T"
	case ChargeChannel:
		return "Q"
	default:
		return "Unknown"
	}
}

// Cabling: each board carries 16 channels, the first 8 are the timing
// outputs of 8 PMTs and the next 8 the charge outputs of the same PMTs.

func RoleOf(channel int) ChannelRole {
	return ChannelRole((channel / 8) % 2)
}

func BoardOf(channel int) int {
	return channel / ChannelsPerBoard
}

func PmtOf(channel int) int {
	return (channel/ChannelsPerBoard)*8 + channel%8
}

func ArmOf(pmt int) int {
	return pmt / PmtsPerArm
}

// ChannelOf is the inverse of PmtOf for the given role.
func ChannelOf(pmt int, role ChannelRole) int {
	return (pmt/8)*ChannelsPerBoard + int(role)*8 + pmt%8
}

// PacketOf returns the packet id carrying the channel and its index inside it.
func PacketOf(channel int) (int, int) {
	return FirstPacketID + channel/ChannelsPerPacket, channel % ChannelsPerPacket
}

func ValidChannel(channel int) bool {
	return channel >= 0 && channel < NumChannels
}

func ValidPmt(pmt int) bool {
	return pmt >= 0 && pmt < NumPmts
}

func ValidBoard(board int) bool {
	return board >= 0 && board < NumBoards
}
