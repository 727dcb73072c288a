package native

import (
	"bufio"
	"fmt"
	"math"
	"strings"

	"github.com/alouette/alouette/backend"
)

// saySpeaker drives the macOS say command.
type saySpeaker struct{}

func (saySpeaker) binary() string    { return "say" }
func (saySpeaker) listArgs() []string { return []string{"-v", "?"} }
func (saySpeaker) format() string    { return "aiff" }

// parseVoices parses say -v ? lines of the form
// "Alex                en_US    # Most people recognize me by my voice."
func (saySpeaker) parseVoices(output string) []backend.Candidate {
	var voices []backend.Candidate
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		comment := strings.Index(line, "#")
		if comment >= 0 {
			line = line[:comment]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		locale := fields[len(fields)-1]
		name := strings.Join(fields[:len(fields)-1], " ")
		voices = append(voices, backend.Candidate{
			Name:    name,
			Locale:  strings.ReplaceAll(locale, "_", "-"),
			Quality: backend.QualityStandard,
		})
	}
	return voices
}

// synthArgs builds the say invocation. say takes words per minute; the
// default voice speaks at roughly 175, so the neutral multiplier maps there.
func (saySpeaker) synthArgs(req backend.Request, outFile string, rateScale float64) []string {
	args := []string{"-o", outFile}
	if req.Option != "" {
		args = append(args, "-v", req.Option)
	}
	wpm := int(math.Round(175 * normal(req.Rate) * rateScale))
	args = append(args, "-r", fmt.Sprintf("%d", wpm), req.Text)
	return args
}

// espeakSpeaker drives espeak-ng on Linux.
type espeakSpeaker struct{}

func (espeakSpeaker) binary() string    { return "espeak-ng" }
func (espeakSpeaker) listArgs() []string { return []string{"--voices"} }
func (espeakSpeaker) format() string    { return "wav" }

// parseVoices parses the --voices table:
// " Pty Language       Age/Gender VoiceName          File                 Other Languages"
// "  5  en-US          M          english-us         en-us"
func (espeakSpeaker) parseVoices(output string) []backend.Candidate {
	var voices []backend.Candidate
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		gender := ""
		switch fields[2] {
		case "M":
			gender = "Male"
		case "F":
			gender = "Female"
		}
		voices = append(voices, backend.Candidate{
			Name:    fields[3],
			Locale:  fields[1],
			Quality: backend.QualityStandard,
			Gender:  gender,
		})
	}
	return voices
}

// synthArgs builds the espeak-ng invocation. Speed is words per minute
// around a 175 default; pitch is 0-99 around 50; amplitude is 0-200
// around 100.
func (espeakSpeaker) synthArgs(req backend.Request, outFile string, rateScale float64) []string {
	args := []string{"-w", outFile}
	if req.Option != "" {
		args = append(args, "-v", req.Option)
	}
	args = append(args,
		"-s", fmt.Sprintf("%d", int(math.Round(175*normal(req.Rate)*rateScale))),
		"-p", fmt.Sprintf("%d", clampInt(int(math.Round(50*normal(req.Pitch))), 0, 99)),
		"-a", fmt.Sprintf("%d", clampInt(int(math.Round(100*normal(req.Volume))), 0, 200)),
		req.Text,
	)
	return args
}

// sapiSpeaker drives the Windows speech API through PowerShell.
type sapiSpeaker struct{}

func (sapiSpeaker) binary() string { return "powershell" }
func (sapiSpeaker) format() string { return "wav" }

func (sapiSpeaker) listArgs() []string {
	return []string{"-NoProfile", "-Command",
		`Add-Type -AssemblyName System.Speech; (New-Object System.Speech.Synthesis.SpeechSynthesizer).GetInstalledVoices() | ForEach-Object { $i = $_.VoiceInfo; "$($i.Name)|$($i.Culture)|$($i.Gender)" }`}
}

// parseVoices parses the pipe-separated lines emitted by listArgs.
func (sapiSpeaker) parseVoices(output string) []backend.Candidate {
	var voices []backend.Candidate
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		parts := strings.Split(strings.TrimSpace(scanner.Text()), "|")
		if len(parts) != 3 || parts[0] == "" {
			continue
		}
		voices = append(voices, backend.Candidate{
			Name:    parts[0],
			Locale:  parts[1],
			Quality: backend.QualityStandard,
			Gender:  parts[2],
		})
	}
	return voices
}

// synthArgs builds the PowerShell invocation. SAPI rate runs -10..10
// around 0; volume runs 0..100.
func (sapiSpeaker) synthArgs(req backend.Request, outFile string, rateScale float64) []string {
	rate := clampInt(int(math.Round((normal(req.Rate)*rateScale-1.0)*10)), -10, 10)
	volume := clampInt(int(math.Round(100*normal(req.Volume))), 0, 100)

	script := fmt.Sprintf(
		`Add-Type -AssemblyName System.Speech; $s = New-Object System.Speech.Synthesis.SpeechSynthesizer; $s.Rate = %d; $s.Volume = %d; %s$s.SetOutputToWaveFile(%s); $s.Speak(%s); $s.Dispose()`,
		rate, volume, selectVoice(req.Option), psQuote(outFile), psQuote(req.Text))
	return []string{"-NoProfile", "-Command", script}
}

func selectVoice(name string) string {
	if name == "" {
		return ""
	}
	return fmt.Sprintf("$s.SelectVoice(%s); ", psQuote(name))
}

// psQuote single-quotes a string for PowerShell, doubling embedded quotes.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// normal substitutes the neutral 1.0 for an unset multiplier.
func normal(v float64) float64 {
	if v <= 0 {
		return 1.0
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
