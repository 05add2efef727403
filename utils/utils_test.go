package utils_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/haydee_tools/utils"
)

func TestBoneNames(t *testing.T) {
	assert.Equal(t, "SK_Arm_R", utils.BoneNameToTool("SK_R_Arm"))
	assert.Equal(t, "SK_Leg_L", utils.BoneNameToTool("SK_L_Leg"))
	assert.Equal(t, "SK_R_Arm", utils.BoneNameToEngine("SK_Arm_R"))
	assert.Equal(t, "SK_Spine", utils.EngineBoneName("Spine"))
	assert.Equal(t, "SK_Spine", utils.EngineBoneName("SK_Spine"))
	assert.Equal(t, "Hair_01_", utils.StripName("Hair 01!"))
	assert.Equal(t, "x1body", utils.GroupName("1body"))

	long := strings.Repeat("a", 40)
	assert.Len(t, utils.TruncateName(long), utils.NAME_LIMIT)
	// never cut inside a multi byte rune
	assert.Equal(t, strings.Repeat("a", 30), utils.TruncateName(strings.Repeat("a", 30)+"ĀĀ"))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "1.5", utils.FormatFloat(1.5))
	assert.Equal(t, "2", utils.FormatFloat(2))
	assert.Equal(t, "0", utils.FormatFloat(-0.0000001))
	assert.Equal(t, "-0.25 0 3", utils.FormatFloats(-0.25, 0, 3))
}

func TestBufStackOverrun(t *testing.T) {
	bs := utils.NewBufStack("header", []byte{1, 0, 0, 0, 2, 0})
	assert.Equal(t, uint32(1), bs.ReadLU32())
	assert.NoError(t, bs.Err())
	assert.Equal(t, uint32(0), bs.ReadLU32())
	require.Error(t, bs.Err())
	assert.Equal(t, 0, bs.Left())

	sub := utils.NewBufStack("file", make([]byte, 8)).SubBuf("record", 4, 4)
	assert.Equal(t, 4, sub.Size())
	assert.Equal(t, uint32(0), sub.LU32(4))
	assert.Error(t, sub.Err())
}

func TestLatin1Strings(t *testing.T) {
	assert.Equal(t, "é", utils.BytesToString([]byte{0xe9, 0, 'x'}))

	buf, err := utils.StringToBytesBuffer("é", 4, true)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xe9, 0, 0, 0}, buf)

	_, err = utils.StringToBytesBuffer("abc", 2, true)
	assert.Error(t, err)
}

func TestUTF16(t *testing.T) {
	data, n := utils.EncodeUTF16("Haydee")
	assert.Equal(t, 6, n)
	s, err := utils.DecodeUTF16(data)
	require.NoError(t, err)
	assert.Equal(t, "Haydee", s)

	_, err = utils.DecodeUTF16([]byte{1})
	assert.Error(t, err)
}

func TestVerboseLogger(t *testing.T) {
	var buf bytes.Buffer
	utils.SetVerbose(&buf)
	defer utils.SetVerbose(nil)

	utils.Verbose.Printf("bone %d", 3)
	assert.Equal(t, "bone 3\n", buf.String())

	var discard *utils.Logger
	discard.Printf("ignored")
}
