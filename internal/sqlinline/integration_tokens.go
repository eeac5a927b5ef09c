package sqlinline

const QSelectIntegrationToken = `--sql 48f3a9d7-0b61-4c2e-a5d4-9e72c1b8f036
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql b65d01e9-8a37-42fb-9c10-d4e8572fa6b1
insert into integration_tokens (provider, token, properties, created_at, updated_at)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`
