package auth

import (
	"fmt"
	"strings"
)

// ShowTokenSetupGuide displays step-by-step instructions for obtaining the
// API tokens the tool needs
func ShowTokenSetupGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("API TOKEN SETUP GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("The scraping backend needs an Apify API token. The AI classification")
	fmt.Println("fallback additionally needs an OpenAI-compatible API key.")
	fmt.Println()

	fmt.Println("STEP 1: Get an Apify token")
	fmt.Println("   - Sign in at https://console.apify.com")
	fmt.Println("   - Open Settings -> Integrations")
	fmt.Println("   - Copy your personal API token (starts with 'apify_api_')")
	fmt.Println()

	fmt.Println("STEP 2: Store it")
	fmt.Println("   icpscout auth set apify")
	fmt.Println("   The token goes into your system keychain when available,")
	fmt.Println("   otherwise into an encrypted file under your config directory.")
	fmt.Println()

	fmt.Println("STEP 3 (optional): AI classification fallback")
	fmt.Println("   icpscout auth set ai")
	fmt.Println("   Any OpenAI-compatible chat-completions key works.")
	fmt.Println()

	fmt.Println("For CI and containers, environment variables work instead:")
	fmt.Println("   ICPSCOUT_APIFY_TOKEN=...")
	fmt.Println("   ICPSCOUT_AI_API_KEY=...")
	fmt.Println()

	fmt.Println("SECURITY:")
	fmt.Println("   - Paid calls run against your Apify account; never share the token")
	fmt.Println("   - Tokens are stored encrypted, never in plain config files")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickSetupGuide shows a condensed version for experienced users
func ShowQuickSetupGuide() {
	fmt.Println("\nQuick setup: console.apify.com -> Settings -> Integrations -> copy token")
	fmt.Println("   Then: icpscout auth set apify")
	fmt.Println("   Or export ICPSCOUT_APIFY_TOKEN for CI runs")
}
