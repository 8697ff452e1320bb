package agent

// Instruction templates sent to the generation capability. Placeholders in
// braces are substituted by the genai client.

const classifyTemplate = `Classify the user's intent based on the prompt, history, and context:
Options:
- 'new_workflow': User wants to create a specific new workflow (e.g., 'create a workflow for Jira').
- 'modify_workflow': User wants to modify an existing workflow (e.g., 'add to workflow').
- 'general': User asks a question, seeks info, or initiates a workflow process without specifics (e.g., 'start new workflow', 'what are providers').
- 'unclear': Intent is ambiguous.
Prompt: {prompt}
History: {history}
Context: {search_context}
Examples:
- 'create a workflow for Jira with GitHub' -> 'new_workflow'
- 'add a step to the workflow' -> 'modify_workflow'
- 'forgot above all conversation let start new workflow' -> 'general'
- 'start new workflow' -> 'general'
- 'what is this?' -> 'general'
Rules:
- Focus on the user's action: 'create' implies 'new_workflow', 'start' without 'create' implies 'general'.
- If the prompt is ambiguous but mentions 'workflow', lean toward 'general' unless it's clearly a creation or modification request.
- Return exactly one of: 'new_workflow', 'modify_workflow', 'general', 'unclear'.
Return plain text.`

const generateTemplate = `Generate a workflow JSON based on the user's prompt:
Prompt: {prompt}
History: {history}
Context (SCM providers and connectors): {search_context}
Rules:
- Identify SCM providers (e.g., GitHub, Bitbucket) and ticketing systems (e.g., Jira) in the prompt.
- Use 'scm_id' from context for SCM providers (e.g., 'adf1f67b-e369-4701-af47-d9733ef27326' for GitLab).
- Use 'ticketing_id' for ticketing systems (e.g., 'ticket-jira-placeholder' if no ID).
- For conditional logic (e.g., 'based on type'), include a decision node with type 'branch'.
- 'structure': List of nodes with id (e.g., 'node-1'), name (hyphenated lowercase), type ('normal'), content (empty dict), position (x:58, y:261, increment x by 100).
- 'data': List of entries with id, name, type ('SCM_ACTION' or 'EXTERNAL_SOURCE'), version '1.0', properties (dict with action), metadata (title, connector), and 'scm_id' or 'ticketing_id'.
Return a valid JSON object with 'structure' and 'data' keys, without markdown code blocks.`

const modifyTemplate = `Modify the existing workflow JSON based on the prompt:
Prompt: {prompt}
History: {history}
Context: {search_context}
Existing: {existing_workflow}
Rules:
- Update the JSON object with 'structure' and 'data' keys based on the prompt.
- If no existing workflow, start fresh but consider the prompt.
Return a valid JSON object with 'structure' and 'data' keys.`

const generalTemplate = `Respond to the user's prompt dynamically:
Prompt: {prompt}
History: {history}
Context: {search_context}
Rules:
- If asking to start a workflow without specifics (e.g., 'start new workflow'), ask for requirements.
- If asking about providers or info, provide relevant details from context.
- Keep responses concise, friendly, and conversational.
Return plain text.`
