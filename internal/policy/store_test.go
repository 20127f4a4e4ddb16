package policy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/sesslint/internal/policy"
)

const (
	installSelfPersonaTestName   = "install_self_persona"
	installTeamPersonaTestName   = "install_team_persona"
	installUnknownPersonaName    = "install_unknown_persona_errors"
	readMissingPolicyTestName    = "read_missing_policy_errors"
	existingPolicyPreservedName  = "install_overwrites_existing_policy"
	readInstalledPolicyTestName  = "read_returns_installed_text"
)

func TestStoreInstall(testInstance *testing.T) {
	testCases := []struct {
		name            string
		persona         string
		expectedError   bool
		expectedContent string
	}{
		{name: installSelfPersonaTestName, persona: policy.PersonaSelf, expectedContent: "# Session Policy"},
		{name: installTeamPersonaTestName, persona: policy.PersonaTeam, expectedContent: "# Team Session Policy"},
		{name: installUnknownPersonaName, persona: "parent", expectedError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			configurationDirectory := filepath.Join(testInstance.TempDir(), ".sesslint")
			policyStore := policy.NewStore(configurationDirectory)

			installError := policyStore.Install(testCase.persona)
			if testCase.expectedError {
				var unknownPersonaError policy.UnknownPersonaError
				require.ErrorAs(testInstance, installError, &unknownPersonaError)
				require.False(testInstance, policyStore.Exists())
				return
			}

			require.NoError(testInstance, installError)
			require.True(testInstance, policyStore.Exists())

			policyText, readError := policyStore.Read()
			require.NoError(testInstance, readError)
			require.Contains(testInstance, policyText, testCase.expectedContent)
		})
	}
}

func TestStoreRead(testInstance *testing.T) {
	testInstance.Run(readMissingPolicyTestName, func(testInstance *testing.T) {
		policyStore := policy.NewStore(filepath.Join(testInstance.TempDir(), ".sesslint"))

		_, readError := policyStore.Read()
		var notFoundError policy.PolicyNotFoundError
		require.ErrorAs(testInstance, readError, &notFoundError)
		require.Contains(testInstance, notFoundError.PolicyPath, "policy.md")
	})

	testInstance.Run(readInstalledPolicyTestName, func(testInstance *testing.T) {
		configurationDirectory := filepath.Join(testInstance.TempDir(), ".sesslint")
		require.NoError(testInstance, os.MkdirAll(configurationDirectory, 0o755))
		require.NoError(testInstance, os.WriteFile(filepath.Join(configurationDirectory, "policy.md"), []byte("# Custom Rules\n"), 0o644))

		policyStore := policy.NewStore(configurationDirectory)
		policyText, readError := policyStore.Read()
		require.NoError(testInstance, readError)
		require.Equal(testInstance, "# Custom Rules\n", policyText)
	})
}

func TestStoreInstallOverwrites(testInstance *testing.T) {
	testInstance.Run(existingPolicyPreservedName, func(testInstance *testing.T) {
		configurationDirectory := filepath.Join(testInstance.TempDir(), ".sesslint")
		policyStore := policy.NewStore(configurationDirectory)

		require.NoError(testInstance, policyStore.Install(policy.PersonaSelf))
		require.NoError(testInstance, policyStore.Install(policy.PersonaTeam))

		policyText, readError := policyStore.Read()
		require.NoError(testInstance, readError)
		require.Contains(testInstance, policyText, "# Team Session Policy")
	})
}
