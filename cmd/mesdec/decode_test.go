package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoremi/ai5dev-go/pkg/lzss"
)

func runMesdec(t *testing.T, args ...string) (string, error) {
	t.Helper()
	GameName, ConfigFile, RawText, Compressed, OutputPath = "", "", false, false, ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFixture(t *testing.T) (dir, mes, cfg string) {
	t.Helper()
	dir = t.TempDir()
	mes = filepath.Join(dir, "start.mes")
	require.NoError(t, os.WriteFile(mes, []byte{0x04, 0x03, 0x01, 0x02, 0xe0, 0xff, 0x00, 0x00}, 0o644))
	cfg = filepath.Join(dir, "ai5dev.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("game: isaku\n"), 0o644))
	return dir, mes, cfg
}

func TestDecodeCommands(t *testing.T) {
	_, mes, cfg := writeFixture(t)

	out, err := runMesdec(t, "print", "-c", cfg, mes)
	require.NoError(t, err)
	assert.Equal(t, "\tvar16[3] = 1 + 2;\n\treturn;\n", out)

	out, err = runMesdec(t, "asm", "-c", cfg, "-g", "koihime", mes)
	require.NoError(t, err)
	assert.Equal(t, "\tSETV[3] = 1 + 2;\n\tEND;\n", out)

	out, err = runMesdec(t, "info", "-c", cfg, mes)
	require.NoError(t, err)
	assert.Contains(t, out, "Game:       isaku")
	assert.Contains(t, out, "Statements: 2")

	out, err = runMesdec(t, "dump", "-c", cfg, mes)
	require.NoError(t, err)
	assert.Contains(t, out, "# 0x00000000 SETV")
	assert.Contains(t, out, "VarNo: (uint8) 3")
}

func TestDecodeOutputDir(t *testing.T) {
	dir, mes, cfg := writeFixture(t)
	second := filepath.Join(dir, "second.mes")
	require.NoError(t, os.WriteFile(second, []byte{0x00}, 0o644))
	outDir := filepath.Join(dir, "out")

	_, err := runMesdec(t, "flat", "-c", cfg, "-o", outDir, mes, second)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "second.txt"))
	require.NoError(t, err)
	assert.Equal(t, "\treturn;\n", string(data))
	_, err = os.Stat(filepath.Join(outDir, "start.txt"))
	assert.NoError(t, err)
}

func TestDecodeFailures(t *testing.T) {
	dir, mes, cfg := writeFixture(t)

	bad := filepath.Join(dir, "bad.mes")
	require.NoError(t, os.WriteFile(bad, []byte{0x17}, 0o644))
	_, err := runMesdec(t, "print", "-c", cfg, mes, bad)
	assert.Error(t, err)

	_, err = runMesdec(t, "print", "-c", cfg, "-g", "nosuchgame", mes)
	assert.Error(t, err)
}

func TestDecodeCompressed(t *testing.T) {
	dir, _, cfg := writeFixture(t)
	packed := filepath.Join(dir, "packed.mes")
	data := lzss.Compress([]byte{0x04, 0x03, 0x01, 0x02, 0xe0, 0xff, 0x00, 0x00})
	require.NoError(t, os.WriteFile(packed, data, 0o644))

	out, err := runMesdec(t, "print", "-c", cfg, "--lzss", packed)
	require.NoError(t, err)
	assert.Equal(t, "\tvar16[3] = 1 + 2;\n\treturn;\n", out)
}

func TestGames(t *testing.T) {
	out, err := runMesdec(t, "games")
	require.NoError(t, err)
	assert.Contains(t, out, "aishimai")
	assert.Contains(t, out, "AI5WIN")
}
